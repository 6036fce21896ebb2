package guard

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"

	sessiondomain "xriepv1/client/internal/session/domain"
)

const decisionQuery = "data.xriep.route_guard.decision"

// DefaultPolicy mirrors Landing and Admit.
const DefaultPolicy = `package xriep.route_guard

admin_routes := {"/admin-dashboard"}

user_routes := {"/user-home", "/request-nomor", "/request-list", "/tiktok-downloader", "/instagram-downloader"}

is_admin if {
	input.session.has_user
	input.session.role == "admin"
}

home := "/login" if not input.session.has_user

home := "/admin-dashboard" if is_admin

home := "/user-home" if {
	input.session.has_user
	not is_admin
}

default landing := ""

landing := home if not input.session.is_loading

default redirect := ""

redirect := "/login" if {
	admin_routes[input.route]
	not is_admin
}

redirect := "/login" if {
	user_routes[input.route]
	not input.session.has_user
}

redirect := home if {
	input.route == "/login"
	input.session.has_user
}

decision := {"landing": landing, "redirect": redirect}
`

// Guard evaluates route decisions with a Rego policy, falling back to Landing and Admit when evaluation fails.
type Guard struct {
	query  rego.PreparedEvalQuery
	logger *zap.Logger
}

// New compiles policies (DefaultPolicy when none are given). Every policy must define
// data.xriep.route_guard.decision as {"landing": string, "redirect": string}.
func New(ctx context.Context, logger *zap.Logger, policies ...string) (*Guard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(policies) == 0 {
		policies = []string{DefaultPolicy}
	}
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("guard: compile policies: %w", err)
	}
	query, err := rego.New(
		rego.Query(decisionQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("guard: prepare query: %w", err)
	}
	return &Guard{query: query, logger: logger}, nil
}

// HealthCheck evaluates the policy against an empty session. Returns nil on success.
func (g *Guard) HealthCheck(ctx context.Context) error {
	_, _, err := g.eval(ctx, RouteIndex, sessiondomain.Snapshot{})
	return err
}

// Landing is the policy-evaluated form of the package-level Landing.
func (g *Guard) Landing(ctx context.Context, snap sessiondomain.Snapshot) (Route, bool) {
	landing, _, err := g.eval(ctx, RouteIndex, snap)
	if err != nil {
		g.logger.Warn("guard: landing evaluation failed, using defaults", zap.Error(err))
		return Landing(snap)
	}
	if landing == "" {
		return "", false
	}
	return landing, true
}

// Admit is the policy-evaluated form of the package-level Admit.
func (g *Guard) Admit(ctx context.Context, route Route, snap sessiondomain.Snapshot) Decision {
	_, redirect, err := g.eval(ctx, route, snap)
	if err != nil {
		g.logger.Warn("guard: admit evaluation failed, using defaults", zap.String("route", string(route)), zap.Error(err))
		return Admit(route, snap)
	}
	return Decision{Redirect: redirect}
}

func (g *Guard) eval(ctx context.Context, route Route, snap sessiondomain.Snapshot) (landing, redirect Route, err error) {
	rs, err := g.query.Eval(ctx, rego.EvalInput(buildInput(route, snap)))
	if err != nil {
		return "", "", err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return "", "", fmt.Errorf("guard: policy returned no decision")
	}
	out, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("guard: decision has type %T", rs[0].Expressions[0].Value)
	}
	l, lok := out["landing"].(string)
	r, rok := out["redirect"].(string)
	if !lok || !rok {
		return "", "", fmt.Errorf("guard: decision fields are not strings: %v", out)
	}
	return Route(l), Route(r), nil
}

func buildInput(route Route, snap sessiondomain.Snapshot) map[string]interface{} {
	role := ""
	if snap.User != nil {
		role = string(snap.User.Role)
	}
	return map[string]interface{}{
		"route": string(route),
		"session": map[string]interface{}{
			"has_user":   snap.User != nil,
			"role":       role,
			"is_loading": snap.IsLoading,
		},
	}
}
