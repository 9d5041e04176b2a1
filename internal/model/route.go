package model

// Route 表示引导流程解析出的前端目的地。
type Route string

const (
	RouteAdmission      Route = "/onboarding/admission"
	RoutePlan           Route = "/onboarding/plan"
	RouteSeat           Route = "/onboarding/seat"
	RoutePayment        Route = "/onboarding/payment"
	RouteStudentProfile Route = "/student/profile"
	RouteAdminDashboard Route = "/admin/dashboard"
)

// RouteTable 表示步骤号到页面路由的映射。
// 步骤号以服务端返回为准：1/2 都落在 admission（注册与入驻信息在后端是两步）。
type RouteTable map[int]Route

// DefaultRouteTable 返回默认的步骤路由表。
func DefaultRouteTable() RouteTable {
	return RouteTable{
		1: RouteAdmission,
		2: RouteAdmission,
		3: RoutePlan,
		4: RouteSeat,
		5: RoutePayment,
	}
}

// ForStep 根据步骤号解析路由，未知步骤回退到第一步。
func (t RouteTable) ForStep(step int) Route {
	if route, ok := t[step]; ok {
		return route
	}
	return RouteAdmission
}

// LastStep 返回表中最大的步骤号。
func (t RouteTable) LastStep() int {
	last := 0
	for step := range t {
		if step > last {
			last = step
		}
	}
	return last
}
