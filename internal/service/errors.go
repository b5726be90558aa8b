package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound   = errors.New("no encontrado")
	ErrValidation = errors.New("datos inválidos")
	ErrConflict   = errors.New("conflicto")
	ErrForbidden  = errors.New("acción no permitida")
	ErrAuth       = errors.New("no autenticado")
)

// Error carries a user-facing Spanish message and unwraps to its kind.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func validationf(format string, args ...interface{}) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return newError(ErrConflict, fmt.Sprintf(format, args...))
}

var (
	ErrInvalidCredentials = newError(ErrAuth, "Correo o contraseña incorrectos")
	ErrUserInactive       = newError(ErrAuth, "La cuenta de usuario está inactiva")
	ErrSessionReplaced    = newError(ErrAuth, "Sesión expirada: se inició sesión en otro dispositivo")
	ErrWrongPassword      = newError(ErrValidation, "La contraseña actual es incorrecta")
	ErrInvalidToken       = newError(ErrAuth, "Token inválido o expirado")

	ErrUserNotFound     = newError(ErrNotFound, "Usuario no encontrado")
	ErrRoleNotFound     = newError(ErrNotFound, "Rol no encontrado")
	ErrEmailExists      = newError(ErrConflict, "Ya existe un usuario con ese correo")
	ErrCannotDeleteSelf = newError(ErrForbidden, "No puede eliminar su propio usuario")

	ErrCategoryNotFound = newError(ErrNotFound, "Categoría no encontrada")
	ErrCategoryExists   = newError(ErrConflict, "Ya existe una categoría con ese nombre")
	ErrCategoryInUse    = newError(ErrConflict, "La categoría tiene productos asociados")

	ErrProductNotFound   = newError(ErrNotFound, "Producto no encontrado")
	ErrSKUExists         = newError(ErrConflict, "Ya existe un producto con ese SKU")
	ErrBarcodeExists     = newError(ErrConflict, "Ya existe un producto con ese código de barras")
	ErrInsufficientStock = newError(ErrConflict, "Stock insuficiente")

	ErrCustomerNotFound = newError(ErrNotFound, "Cliente no encontrado")
	ErrDocumentExists   = newError(ErrConflict, "Ya existe un cliente con ese RNC o cédula")
	ErrCreditLimit      = newError(ErrValidation, "El cliente excede su límite de crédito")

	ErrSupplierNotFound = newError(ErrNotFound, "Suplidor no encontrado")
	ErrSupplierExists   = newError(ErrConflict, "Ya existe un suplidor con ese RNC")
	ErrSupplierInUse    = newError(ErrConflict, "El suplidor tiene órdenes de compra abiertas")

	ErrSaleNotFound       = newError(ErrNotFound, "Venta no encontrada")
	ErrSaleCancelled      = newError(ErrConflict, "La venta ya fue anulada")
	ErrDuplicateRequest   = newError(ErrConflict, "Solicitud duplicada: esta venta ya fue procesada")
	ErrTaxIDRequired      = newError(ErrValidation, "Este tipo de comprobante requiere un cliente con RNC o cédula")
	ErrCustomerRequired   = newError(ErrValidation, "Las ventas a crédito requieren un cliente")
	ErrInsufficientAmount = newError(ErrValidation, "El monto pagado es menor que el total")

	ErrNcfUnavailable   = newError(ErrConflict, "No hay secuencia NCF disponible para este tipo de comprobante")
	ErrNcfExhausted     = newError(ErrConflict, "La secuencia NCF se agotó durante la asignación")
	ErrNcfNotFound      = newError(ErrNotFound, "Secuencia NCF no encontrada")
	ErrNcfOverlap       = newError(ErrConflict, "El rango se solapa con otra secuencia del mismo tipo")
	ErrNcfInvalidRange  = newError(ErrValidation, "El número inicial debe ser menor o igual al máximo")
	ErrNcfShrink        = newError(ErrValidation, "El máximo no puede ser menor que el último número emitido")
	ErrInvalidNcfType   = newError(ErrValidation, "Tipo de NCF inválido")
	ErrRncNotFound      = newError(ErrNotFound, "RNC no encontrado en el registro de la DGII")
	ErrInvalidRnc       = newError(ErrValidation, "RNC o cédula inválido: debe contener 9 u 11 dígitos")
	ErrBusinessRNC      = newError(ErrValidation, "Configure el RNC del negocio antes de generar reportes DGII")
	ErrInvalidPeriod    = newError(ErrValidation, "Periodo inválido: use el formato AAAAMM")
	ErrPurchaseNotFound = newError(ErrNotFound, "Orden de compra no encontrada")
	ErrPurchaseState    = newError(ErrConflict, "La orden de compra no permite esta operación en su estado actual")

	ErrDriverNotFound    = newError(ErrNotFound, "Repartidor no encontrado")
	ErrDeliveryNotFound  = newError(ErrNotFound, "Entrega no encontrada")
	ErrDeliveryExists    = newError(ErrConflict, "La venta ya tiene una entrega activa")
	ErrInvalidTransition = newError(ErrValidation, "Cambio de estado no permitido")

	ErrInvalidFileType = newError(ErrValidation, "Tipo de archivo no permitido: use PNG, JPEG, WEBP o GIF")
	ErrFileTooLarge    = newError(ErrValidation, "El archivo excede el tamaño máximo de 2 MB")
	ErrInvalidPhone    = newError(ErrValidation, "Número de teléfono inválido")
	ErrNoPhone         = newError(ErrValidation, "El cliente no tiene teléfono registrado")
)
