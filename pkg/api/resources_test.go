package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storefront "github.com/goliatone/go-storefront/components/storefront"
)

type recordedRequest struct {
	Method string
	Path   string
	Raw    string
	Query  string
	Body   map[string]any
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) handler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(req.Body).Decode(&payload)
		r.mu.Lock()
		r.requests = append(r.requests, recordedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Raw:    req.URL.EscapedPath(),
			Query:  req.URL.RawQuery,
			Body:   payload,
		})
		r.mu.Unlock()
		writeJSON(w, status, body)
	}
}

func (r *recorder) last() recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

func newTestServices(t *testing.T, rec *recorder, status int, body string) *Services {
	t.Helper()
	client := newTestClient(t, rec.handler(status, body), "tok")
	reg, err := storefront.NewRegistry()
	require.NoError(t, err)
	return NewServices(client, reg)
}

func TestResourceClientPaths(t *testing.T) {
	rec := &recorder{}
	services := newTestServices(t, rec, http.StatusOK, `{"id": 1}`)
	ctx := context.Background()

	categories, err := services.Admin.Resource("categorias")
	require.NoError(t, err)
	assert.Equal(t, "/admin/categorias/", categories.Path())

	_, err = categories.Retrieve(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, recordedRequest{Method: http.MethodGet, Path: "/admin/categorias/4/", Raw: "/admin/categorias/4/"}, rec.last())

	_, err = categories.PartialUpdate(ctx, "4", map[string]any{"destacado": true})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.last().Method)
	assert.Equal(t, true, rec.last().Body["destacado"])

	_, err = categories.Update(ctx, "4", map[string]any{"nombre": "x"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.last().Method)

	require.NoError(t, categories.Remove(ctx, "4"))
	assert.Equal(t, http.MethodDelete, rec.last().Method)

	_, err = categories.Retrieve(ctx, "")
	assert.Error(t, err)

	reviews, err := services.App.Resource("resenas")
	require.NoError(t, err)
	_, err = reviews.Create(ctx, map[string]any{"calificacion": 5})
	require.NoError(t, err)
	assert.Equal(t, "/api/reseñas/", rec.last().Path)
	assert.Equal(t, "/api/rese%C3%B1as/", rec.last().Raw)

	_, err = services.App.Resource("usuarios")
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestResourceClientListAcceptsBothShapes(t *testing.T) {
	for name, body := range map[string]string{
		"array":    `[{"producto_id": 1}, {"producto_id": 2}]`,
		"envelope": `{"count": 2, "results": [{"producto_id": 1}, {"producto_id": 2}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			services := newTestServices(t, rec, http.StatusOK, body)
			products, err := services.Admin.Resource("productos")
			require.NoError(t, err)

			list, err := products.List(context.Background(), storefront.Params{"activo": "true", "q": ""})
			require.NoError(t, err)
			assert.Len(t, list.Items, 2)
			assert.Equal(t, "activo=true", rec.last().Query)
		})
	}
}

func TestResourceClientExportQuery(t *testing.T) {
	rec := &recorder{}
	services := newTestServices(t, rec, http.StatusOK, `{}`)
	products, err := services.Admin.Resource("productos")
	require.NoError(t, err)

	_, err = products.Export(context.Background(), storefront.ExportParams("2026-10-01", "2026-10-15", nil))
	require.NoError(t, err)
	assert.Equal(t, "/admin/productos/export/", rec.last().Path)
	assert.Equal(t, "end_date=2026-10-15&start_date=2026-10-01", rec.last().Query)
}

func TestServicesEndpoints(t *testing.T) {
	rec := &recorder{}
	services := newTestServices(t, rec, http.StatusOK, `{"pedido_id": 3}`)
	ctx := context.Background()

	_, err := services.Cart.Add(ctx, "7", 2)
	require.NoError(t, err)
	assert.Equal(t, "/api/carrito/add/", rec.last().Path)
	assert.Equal(t, "7", rec.last().Body["producto_id"])
	assert.Equal(t, float64(2), rec.last().Body["cantidad"])

	require.NoError(t, services.Cart.UpdateQuantity(ctx, "7", 0))
	assert.Equal(t, "/api/carrito/update-quantity/", rec.last().Path)
	require.NoError(t, services.Cart.RemoveItem(ctx, "7"))
	assert.Equal(t, "/api/carrito/remove/", rec.last().Path)
	require.NoError(t, services.Cart.Clear(ctx))
	assert.Equal(t, "/api/carrito/clear/", rec.last().Path)

	order, err := services.Orders.Checkout(ctx, CheckoutRequest{ShippingAddress: "Calle 1", Notes: ""})
	require.NoError(t, err)
	assert.Equal(t, "3", order.String("pedido_id"))
	assert.Equal(t, "/api/pedidos/checkout/", rec.last().Path)
	assert.Equal(t, "Calle 1", rec.last().Body["direccion_envio"])
	_, hasMethod := rec.last().Body["metodo_entrega"]
	assert.False(t, hasMethod)

	_, err = services.Transactions.Pay(ctx, PaymentRequest{OrderID: "3", Method: "tarjeta", Amount: "10.50"})
	require.NoError(t, err)
	assert.Equal(t, "/api/transacciones/pay/", rec.last().Path)
	assert.Equal(t, "10.50", rec.last().Body["monto"])

	_, err = services.Reports.AddFollowUp(ctx, storefront.NamespaceAdmin, "12", "revisado")
	require.NoError(t, err)
	assert.Equal(t, "/admin/reportes-fallas/12/followups/", rec.last().Path)
	assert.Equal(t, "revisado", rec.last().Body["mensaje"])

	_, err = services.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/auth/me/", rec.last().Path)
	assert.Equal(t, http.MethodGet, rec.last().Method)
}

func TestAuthLoginDecodesResult(t *testing.T) {
	rec := &recorder{}
	services := newTestServices(t, rec, http.StatusOK, `{"user": {"email": "a@b.c", "is_staff": true}, "access": "acc", "refresh": "ref"}`)

	result, err := services.Auth.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/auth/login/", rec.last().Path)
	assert.Equal(t, "secret", rec.last().Body["password"])
	assert.Equal(t, "acc", result.Access)
	assert.True(t, result.User.Bool("is_staff"))
}

func TestLatestBanner(t *testing.T) {
	rec := &recorder{}
	services := newTestServices(t, rec, http.StatusOK, `null`)
	banner, err := services.Notifications.LatestBanner(context.Background())
	require.NoError(t, err)
	assert.Nil(t, banner)
	assert.Equal(t, "/api/notificaciones/latest-banner/", rec.last().Path)

	services = newTestServices(t, rec, http.StatusOK, `{"notificacion_id": 4, "tipo": "oferta", "titulo": "2x1", "mensaje": "Hoy"}`)
	banner, err = services.Notifications.LatestBanner(context.Background())
	require.NoError(t, err)
	require.NotNil(t, banner)
	assert.Equal(t, "2x1", banner.Title)
}
