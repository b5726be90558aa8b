package model

// Privilege represents a permission granted to roles
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView   = "user:view"
	PrivUserCreate = "user:create"
	PrivUserUpdate = "user:update"
	PrivUserDelete = "user:delete"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"

	PrivInventoryView   = "inventory:view"
	PrivInventoryAdjust = "inventory:adjust"

	PrivCustomerView   = "customer:view"
	PrivCustomerCreate = "customer:create"
	PrivCustomerUpdate = "customer:update"
	PrivCustomerDelete = "customer:delete"

	PrivSupplierView   = "supplier:view"
	PrivSupplierManage = "supplier:manage"

	PrivSaleView   = "sale:view"
	PrivSaleCreate = "sale:create"
	PrivSaleCancel = "sale:cancel"

	PrivPurchaseView   = "purchase:view"
	PrivPurchaseManage = "purchase:manage"

	PrivNcfView   = "ncf:view"
	PrivNcfManage = "ncf:manage"

	PrivReportView    = "report:view"
	PrivDashboardView = "dashboard:view"

	PrivSettingsUpdate = "settings:update"
	PrivAuditView      = "audit:view"

	PrivDeliveryView   = "delivery:view"
	PrivDeliveryManage = "delivery:manage"

	PrivWhatsAppSend = "whatsapp:send"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "Ver usuarios"},
	{Code: PrivUserCreate, Name: "Crear usuarios"},
	{Code: PrivUserUpdate, Name: "Editar usuarios"},
	{Code: PrivUserDelete, Name: "Eliminar usuarios"},
	{Code: PrivProductView, Name: "Ver productos"},
	{Code: PrivProductCreate, Name: "Crear productos"},
	{Code: PrivProductUpdate, Name: "Editar productos"},
	{Code: PrivProductDelete, Name: "Eliminar productos"},
	{Code: PrivInventoryView, Name: "Ver inventario"},
	{Code: PrivInventoryAdjust, Name: "Ajustar inventario"},
	{Code: PrivCustomerView, Name: "Ver clientes"},
	{Code: PrivCustomerCreate, Name: "Crear clientes"},
	{Code: PrivCustomerUpdate, Name: "Editar clientes"},
	{Code: PrivCustomerDelete, Name: "Eliminar clientes"},
	{Code: PrivSupplierView, Name: "Ver suplidores"},
	{Code: PrivSupplierManage, Name: "Gestionar suplidores"},
	{Code: PrivSaleView, Name: "Ver ventas"},
	{Code: PrivSaleCreate, Name: "Registrar ventas"},
	{Code: PrivSaleCancel, Name: "Anular ventas"},
	{Code: PrivPurchaseView, Name: "Ver órdenes de compra"},
	{Code: PrivPurchaseManage, Name: "Gestionar órdenes de compra"},
	{Code: PrivNcfView, Name: "Ver secuencias NCF"},
	{Code: PrivNcfManage, Name: "Gestionar secuencias NCF"},
	{Code: PrivReportView, Name: "Ver reportes DGII"},
	{Code: PrivDashboardView, Name: "Ver analíticas"},
	{Code: PrivSettingsUpdate, Name: "Editar configuración"},
	{Code: PrivAuditView, Name: "Ver auditoría"},
	{Code: PrivDeliveryView, Name: "Ver entregas"},
	{Code: PrivDeliveryManage, Name: "Gestionar entregas"},
	{Code: PrivWhatsAppSend, Name: "Enviar WhatsApp"},
}
