package api

import (
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/erazemk/toir/internal/auth"
	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/scheduler"
)

// Options carries the collaborators of the API beyond the database.
type Options struct {
	Tokens    *auth.Tokens
	Scheduler *scheduler.Scheduler

	// LoginRate and LoginBurst bound login attempts per client address.
	// A zero rate disables the limit.
	LoginRate  rate.Limit
	LoginBurst int

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.New(db, 0, nil)
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Tokens: opts.Tokens}
	usersHandler := &UsersHandler{DB: db}
	equipmentHandler := &EquipmentHandler{DB: db}
	plansHandler := &PlansHandler{DB: db, Scheduler: opts.Scheduler, Now: opts.Now}
	ordersHandler := &WorkOrdersHandler{DB: db}
	partsHandler := &PartsHandler{DB: db}
	materialsHandler := &MaterialsHandler{DB: db}
	maintenanceHandler := &MaintenanceHandler{DB: db, Now: opts.Now}
	runtimeHandler := &RuntimeHandler{DB: db}
	operationsHandler := &OperationsHandler{DB: db}

	authMW := AuthMiddleware(opts.Tokens, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	manager := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public.
	var login http.Handler = http.HandlerFunc(authHandler.Login)
	if opts.LoginRate > 0 {
		login = newIPLimiter(opts.LoginRate, max(opts.LoginBurst, 1)).RateLimit(login)
	}
	mux.Handle("POST /api/auth/login", login)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "timestamp": opts.Now().UTC()})
	})

	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Equipment: read (all roles), write (manager+), reset (admin).
	mux.Handle("GET /api/equipment", authed(equipmentHandler.ListAssets))
	mux.Handle("GET /api/equipment/tree", authed(equipmentHandler.Tree))
	mux.Handle("GET /api/equipment/nodes", authed(equipmentHandler.ListNodes))
	mux.Handle("POST /api/equipment/nodes", manager(equipmentHandler.CreateNode))
	mux.Handle("GET /api/equipment/nodes/{id}", authed(equipmentHandler.GetNode))
	mux.Handle("PATCH /api/equipment/nodes/{id}", manager(equipmentHandler.UpdateNode))
	mux.Handle("DELETE /api/equipment/nodes/{id}", manager(equipmentHandler.DeleteNode))
	mux.Handle("PUT /api/equipment/nodes/{id}/image", manager(equipmentHandler.UploadImage))
	mux.Handle("GET /api/equipment/nodes/{id}/image", authed(equipmentHandler.GetImage))
	mux.Handle("POST /api/equipment/reset", admin(equipmentHandler.Reset))
	mux.Handle("GET /api/equipment-runtime/{equipmentId}", authed(runtimeHandler.List))
	mux.Handle("POST /api/equipment-runtime", authed(runtimeHandler.Record))

	// Maintenance plans.
	mux.Handle("GET /api/maintenance-plans", authed(plansHandler.List))
	mux.Handle("POST /api/maintenance-plans", manager(plansHandler.Create))
	mux.Handle("GET /api/maintenance-plans/{id}", authed(plansHandler.Get))
	mux.Handle("PUT /api/maintenance-plans/{id}", manager(plansHandler.Update))
	mux.Handle("DELETE /api/maintenance-plans/{id}", manager(plansHandler.Delete))
	mux.Handle("GET /api/maintenance-plans/equipment/{id}", authed(plansHandler.ListForEquipment))
	mux.Handle("POST /api/maintenance-plans/auto-create-orders", manager(plansHandler.AutoCreateOrders))

	// Work orders: technicians are limited to their own in the handlers.
	mux.Handle("GET /api/work-orders", authed(ordersHandler.List))
	mux.Handle("POST /api/work-orders", authed(ordersHandler.Create))
	mux.Handle("GET /api/work-orders/stats/summary", authed(ordersHandler.Stats))
	mux.Handle("GET /api/work-orders/export", authed(ordersHandler.Export))
	mux.Handle("GET /api/work-orders/{id}", authed(ordersHandler.Get))
	mux.Handle("PUT /api/work-orders/{id}", authed(ordersHandler.Update))
	mux.Handle("DELETE /api/work-orders/{id}", manager(ordersHandler.Delete))
	mux.Handle("GET /api/work-order-operations/{workOrderId}", authed(operationsHandler.List))
	mux.Handle("POST /api/work-order-operations", authed(operationsHandler.Create))
	mux.Handle("PUT /api/work-order-operations/{id}", authed(operationsHandler.Update))
	mux.Handle("GET /api/work-types", authed(operationsHandler.ListWorkTypes))

	// Spare parts and stock.
	mux.Handle("GET /api/spare-parts", authed(partsHandler.List))
	mux.Handle("POST /api/spare-parts", manager(partsHandler.Create))
	mux.Handle("GET /api/spare-parts/{id}", authed(partsHandler.Get))
	mux.Handle("PUT /api/spare-parts/{id}", manager(partsHandler.Update))
	mux.Handle("DELETE /api/spare-parts/{id}", manager(partsHandler.Delete))
	mux.Handle("GET /api/spare-parts-stock", authed(partsHandler.ListStock))
	mux.Handle("PUT /api/spare-parts-stock/{id}", manager(partsHandler.SetStock))
	mux.Handle("GET /api/spare-part-usage/{workOrderId}", authed(partsHandler.ListUsage))
	mux.Handle("POST /api/spare-part-usage", authed(partsHandler.RecordUsage))

	// Materials.
	mux.Handle("GET /api/materials", authed(materialsHandler.List))
	mux.Handle("POST /api/materials", manager(materialsHandler.Create))
	mux.Handle("GET /api/materials/{id}", authed(materialsHandler.Get))
	mux.Handle("PUT /api/materials/{id}", manager(materialsHandler.Update))
	mux.Handle("DELETE /api/materials/{id}", manager(materialsHandler.Delete))
	mux.Handle("GET /api/material-usage/{workOrderId}", authed(materialsHandler.ListUsage))
	mux.Handle("POST /api/material-usage", authed(materialsHandler.RecordUsage))

	// Maintenance types and log.
	mux.Handle("GET /api/maintenance-types", authed(maintenanceHandler.ListTypes))
	mux.Handle("POST /api/maintenance-types", manager(maintenanceHandler.CreateType))
	mux.Handle("GET /api/maintenance-types/{id}", authed(maintenanceHandler.GetType))
	mux.Handle("PUT /api/maintenance-types/{id}", manager(maintenanceHandler.UpdateType))
	mux.Handle("DELETE /api/maintenance-types/{id}", manager(maintenanceHandler.DeleteType))
	mux.Handle("GET /api/maintenance-history", authed(maintenanceHandler.History))
	mux.Handle("POST /api/maintenance-history", authed(maintenanceHandler.Log))

	return mux
}
