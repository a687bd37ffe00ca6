package api

import (
	"context"
	"errors"
	"fmt"

	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// ErrUnknownResource is returned when a namespace has no resource by that name.
var ErrUnknownResource = errors.New("api: unknown resource")

// Namespace resolves resource clients under one URL prefix.
type Namespace struct {
	http     *HTTPClient
	ns       storefront.Namespace
	registry *storefront.Registry
}

// Resource returns the client for name.
func (n *Namespace) Resource(name string) (*ResourceClient, error) {
	def, ok := n.registry.Definition(n.ns, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownResource, n.ns, name)
	}
	return n.http.Resource(def), nil
}

// Definitions lists the resources of this namespace.
func (n *Namespace) Definitions() []storefront.ResourceDefinition {
	return n.registry.Namespace(n.ns)
}

// Services groups every backend surface the storefront uses.
type Services struct {
	App           *Namespace
	Admin         *Namespace
	Auth          *AuthService
	Cart          *CartService
	Orders        *OrderService
	Transactions  *TransactionService
	Reports       *ReportService
	Notifications *NotificationService
}

// NewServices wires the services for client against registry.
func NewServices(client *HTTPClient, registry *storefront.Registry) *Services {
	return &Services{
		App:           &Namespace{http: client, ns: storefront.NamespaceAPI, registry: registry},
		Admin:         &Namespace{http: client, ns: storefront.NamespaceAdmin, registry: registry},
		Auth:          &AuthService{http: client},
		Cart:          &CartService{http: client},
		Orders:        &OrderService{http: client},
		Transactions:  &TransactionService{http: client},
		Reports:       &ReportService{http: client},
		Notifications: &NotificationService{http: client},
	}
}

// AuthService calls the /auth/ endpoints.
type AuthService struct {
	http *HTTPClient
}

var _ storefront.AuthService = (*AuthService)(nil)

// Login exchanges credentials for a user and token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (storefront.AuthResult, error) {
	var out storefront.AuthResult
	err := s.http.Post(ctx, "/auth/login/", map[string]string{"email": email, "password": password}, &out)
	return out, err
}

// Register creates an account and returns the new user.
func (s *AuthService) Register(ctx context.Context, payload map[string]any) (storefront.Record, error) {
	var out storefront.Record
	err := s.http.Post(ctx, "/auth/register/", payload, &out)
	return out, err
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context) (storefront.Record, error) {
	var out storefront.Record
	err := s.http.Get(ctx, "/auth/me/", nil, &out)
	return out, err
}

// PasswordReset requests a reset link and returns the backend notice.
func (s *AuthService) PasswordReset(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := s.http.Post(ctx, "/auth/password-reset/", map[string]string{"email": email}, &out)
	return out.Message, err
}

// CartService calls the cart actions of the storefront namespace.
type CartService struct {
	http *HTTPClient
}

// Items lists the user's cart.
func (s *CartService) Items(ctx context.Context) ([]storefront.Record, error) {
	var out storefront.Collection
	if err := s.http.Get(ctx, "/api/carrito/", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Add puts quantity units of a product in the cart.
func (s *CartService) Add(ctx context.Context, productID string, quantity int) (storefront.Record, error) {
	var out storefront.Record
	err := s.http.Post(ctx, "/api/carrito/add/", map[string]any{"producto_id": productID, "cantidad": quantity}, &out)
	return out, err
}

// UpdateQuantity sets the quantity of a cart line. Zero removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	return s.http.Post(ctx, "/api/carrito/update-quantity/", map[string]any{"producto_id": productID, "cantidad": quantity}, nil)
}

// RemoveItem drops a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, productID string) error {
	return s.http.Post(ctx, "/api/carrito/remove/", map[string]any{"producto_id": productID}, nil)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) error {
	return s.http.Post(ctx, "/api/carrito/clear/", map[string]any{}, nil)
}

// OrderService calls order actions.
type OrderService struct {
	http *HTTPClient
}

// CheckoutRequest is the checkout form.
type CheckoutRequest struct {
	DeliveryMethod  string `json:"metodo_entrega,omitempty"`
	ShippingAddress string `json:"direccion_envio"`
	Notes           string `json:"notas"`
}

// Checkout turns the cart into an order and returns the backend response.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (storefront.Record, error) {
	var out storefront.Record
	err := s.http.Post(ctx, "/api/pedidos/checkout/", req, &out)
	return out, err
}

// TransactionService calls payment actions.
type TransactionService struct {
	http *HTTPClient
}

// PaymentRequest pays an order.
type PaymentRequest struct {
	OrderID       string `json:"pedido_id"`
	Method        string `json:"metodo_pago"`
	TransactionID string `json:"codigo_transaccion"`
	Amount        string `json:"monto"`
}

// Pay registers a payment for an order.
func (s *TransactionService) Pay(ctx context.Context, req PaymentRequest) (storefront.Record, error) {
	var out storefront.Record
	err := s.http.Post(ctx, "/api/transacciones/pay/", req, &out)
	return out, err
}

// ReportService calls fault-report actions.
type ReportService struct {
	http *HTTPClient
}

// AddFollowUp appends a follow-up to a report. Attachments switch the body
// to multipart.
func (s *ReportService) AddFollowUp(ctx context.Context, ns storefront.Namespace, reportID, message string, attachments ...FormFile) (storefront.Record, error) {
	if ns == "" {
		ns = storefront.NamespaceAPI
	}
	path := fmt.Sprintf("/%s/reportes-fallas/%s/followups/", ns, reportID)
	var body any = map[string]string{"mensaje": message}
	if len(attachments) > 0 {
		form := NewForm().Set("mensaje", message)
		form.Files = append(form.Files, attachments...)
		body = form
	}
	var out storefront.Record
	err := s.http.Post(ctx, path, body, &out)
	return out, err
}

// NotificationService reads storefront notifications.
type NotificationService struct {
	http *HTTPClient
}

var _ storefront.BannerSource = (*NotificationService)(nil)

// LatestBanner returns the active promotional banner, or nil when none.
func (s *NotificationService) LatestBanner(ctx context.Context) (*storefront.Banner, error) {
	var out *storefront.Banner
	if err := s.http.Get(ctx, "/api/notificaciones/latest-banner/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
