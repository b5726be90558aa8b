package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, MANAGER, CASHIER, REPORTER
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleCashier  = "CASHIER"
	RoleReporter = "REPORTER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{Code: RoleAdmin, Name: "Administrador", Description: "Acceso total al sistema"},
	{Code: RoleManager, Name: "Gerente", Description: "Operación completa sin gestión de usuarios ni configuración"},
	{Code: RoleCashier, Name: "Cajero", Description: "Ventas, clientes y consulta de productos"},
	{Code: RoleReporter, Name: "Contador", Description: "Reportes, analíticas y consultas de solo lectura"},
}

// DefaultRolePrivileges maps each seeded role to its privilege codes. ADMIN
// receives every privilege and is not listed.
var DefaultRolePrivileges = map[string][]string{
	RoleManager: {
		PrivProductView, PrivProductCreate, PrivProductUpdate, PrivProductDelete,
		PrivInventoryView, PrivInventoryAdjust,
		PrivCustomerView, PrivCustomerCreate, PrivCustomerUpdate, PrivCustomerDelete,
		PrivSupplierView, PrivSupplierManage,
		PrivSaleView, PrivSaleCreate, PrivSaleCancel,
		PrivPurchaseView, PrivPurchaseManage,
		PrivNcfView, PrivReportView, PrivDashboardView,
		PrivDeliveryView, PrivDeliveryManage, PrivWhatsAppSend,
	},
	RoleCashier: {
		PrivProductView, PrivInventoryView,
		PrivCustomerView, PrivCustomerCreate, PrivCustomerUpdate,
		PrivSaleView, PrivSaleCreate,
		PrivDeliveryView, PrivWhatsAppSend,
	},
	RoleReporter: {
		PrivProductView, PrivInventoryView, PrivCustomerView, PrivSupplierView,
		PrivSaleView, PrivPurchaseView, PrivNcfView,
		PrivReportView, PrivDashboardView, PrivDeliveryView,
	},
}
