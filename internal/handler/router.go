package handler

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/audit"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/metrics"
	"github.com/prn-tf/freshdeal/internal/protocol"
	"github.com/prn-tf/freshdeal/internal/service"
)

// invalidAction labels metrics for requests that never reached a handler.
const invalidAction = "invalid"

type route struct {
	handle      HandlerFunc
	requireUser bool
	adminOnly   bool
}

// Router parses request envelopes and dispatches them by action name.
type Router struct {
	routes       map[string]route
	accounts     *service.AccountService
	audit        *audit.Logger
	metrics      *metrics.Metrics
	enforceAdmin bool
	logger       zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Accounts     *service.AccountService
	Products     *service.ProductService
	Transactions *service.TransactionService
	Audit        *audit.Logger
	Metrics      *metrics.Metrics

	// EnforceAdminRoles restricts admin actions to approved ADMIN accounts.
	EnforceAdminRoles bool
	Logger            zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	accounts := NewAccountHandler(config.Accounts)
	products := NewProductHandler(config.Products)
	transactions := NewTransactionHandler(config.Transactions)

	return &Router{
		routes: map[string]route{
			protocol.ActionLogin:          {handle: accounts.Login, requireUser: true},
			protocol.ActionRegister:       {handle: accounts.Register, requireUser: true},
			protocol.ActionFetchAllUsers:  {handle: accounts.FetchAllUsers, requireUser: true, adminOnly: true},
			protocol.ActionUpdateStatus:   {handle: accounts.UpdateUserStatus, requireUser: true, adminOnly: true},
			protocol.ActionDeleteUser:     {handle: accounts.DeleteUser, requireUser: true, adminOnly: true},
			protocol.ActionChangePassword: {handle: accounts.ChangePassword, requireUser: true},
			protocol.ActionFetchLogs:      {handle: accounts.FetchLogs, requireUser: true, adminOnly: true},

			protocol.ActionAddProduct:          {handle: products.AddProduct, requireUser: true},
			protocol.ActionFetchAllProducts:    {handle: products.FetchAllProducts},
			protocol.ActionFetchSellerProducts: {handle: products.FetchSellerProducts, requireUser: true},
			protocol.ActionUpdateProduct:       {handle: products.UpdateProduct, requireUser: true},
			protocol.ActionDeleteProduct:       {handle: products.DeleteProduct, requireUser: true},
			protocol.ActionSearchProducts:      {handle: products.SearchProducts},
			protocol.ActionBuyProduct:          {handle: products.BuyProduct, requireUser: true},

			protocol.ActionFetchMyPurchases:     {handle: transactions.FetchMyPurchases, requireUser: true},
			protocol.ActionFetchMySales:         {handle: transactions.FetchMySales, requireUser: true},
			protocol.ActionFetchAllTransactions: {handle: transactions.FetchAllTransactions, requireUser: true, adminOnly: true},
		},
		accounts:     config.Accounts,
		audit:        config.Audit,
		metrics:      config.Metrics,
		enforceAdmin: config.EnforceAdminRoles,
		logger:       config.Logger.With().Str("component", "router").Logger(),
	}
}

// Actions returns the names of all routed actions, sorted.
func (rt *Router) Actions() []string {
	names := make([]string, 0, len(rt.routes))
	for name := range rt.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch parses raw and runs the matching handler.
//
// Malformed envelopes are answered with an ERROR response. A returned error
// means the handler hit a system failure and no response was built.
func (rt *Router) Dispatch(ctx context.Context, raw []byte) (*protocol.Response, error) {
	start := time.Now()

	req, err := protocol.ParseRequest(raw)
	if err != nil {
		rt.logger.Debug().Err(err).Msg("malformed request")
		return rt.reject(start, protocol.Error("Invalid request format: "+err.Error())), nil
	}
	if req.Action == "" {
		return rt.reject(start, protocol.Error(protocol.MsgMissingAction)), nil
	}

	r, ok := rt.routes[req.Action]
	if !ok {
		return rt.reject(start, protocol.Error("Unknown action: "+req.Action)), nil
	}
	if r.requireUser && req.Username == "" {
		return rt.observe(req.Action, start, protocol.Error(protocol.MsgMissingUsername)), nil
	}

	if r.adminOnly && rt.enforceAdmin {
		if err := rt.accounts.Authorize(ctx, req.Username); err != nil {
			if !errors.Is(err, domain.ErrAccessDenied) {
				rt.metrics.ObserveRequest(req.Action, string(protocol.StatusError), time.Since(start))
				return nil, err
			}
			rt.audit.Failure(ctx, req.Username, req.Action, "access denied")
			return rt.observe(req.Action, start, protocol.Failed(protocol.MsgAccessDenied)), nil
		}
	}

	resp, err := r.handle(ctx, req)
	if err != nil {
		rt.metrics.ObserveRequest(req.Action, string(protocol.StatusError), time.Since(start))
		return nil, err
	}

	rt.logger.Debug().
		Str("action", req.Action).
		Str("username", req.Username).
		Str("status", string(resp.Status)).
		Dur("elapsed", time.Since(start)).
		Msg("request handled")

	return rt.observe(req.Action, start, resp), nil
}

func (rt *Router) observe(action string, start time.Time, resp *protocol.Response) *protocol.Response {
	rt.metrics.ObserveRequest(action, string(resp.Status), time.Since(start))
	return resp
}

func (rt *Router) reject(start time.Time, resp *protocol.Response) *protocol.Response {
	return rt.observe(invalidAction, start, resp)
}
