package usage

import "time"

// planLimits maps plan names to daily parsed-document limits.
var planLimits = map[string]int{
	"free":       1000,
	"pro":        5000,
	"enterprise": 20000,
}

// LimitFor returns the daily limit for a plan, defaulting to the free tier.
func LimitFor(plan string) int {
	if limit, ok := planLimits[plan]; ok {
		return limit
	}
	return planLimits["free"]
}

func defaultUsage(plan string) Usage {
	if _, ok := planLimits[plan]; !ok {
		plan = "free"
	}
	return Usage{
		Plan:     plan,
		Limit:    LimitFor(plan),
		Used:     0,
		ResetsAt: time.Now().UTC().Add(Window),
	}
}
