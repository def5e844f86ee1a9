package health

import "fmt"

// ClusterCheck reports unhealthy until cluster membership is defined.
func ClusterCheck(getState func() (ready bool, members, needingSync int)) CheckFunc {
	return func() Check {
		ready, members, needingSync := getState()
		check := Check{
			Name: "cluster",
			Details: map[string]any{
				"members":            members,
				"peers_needing_sync": needingSync,
			},
		}

		switch {
		case !ready:
			check.Status = StatusUnhealthy
			check.Message = "Cluster is not defined"
		case needingSync > 0:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d peer(s) waiting for a full sync", needingSync)
		default:
			check.Status = StatusHealthy
			check.Message = "Cluster defined"
		}
		return check
	}
}

// ReplicationCheck degrades once the retry buffer holds at least warnAt
// writes. Peers being down is expected, so it never reports unhealthy.
func ReplicationCheck(getState func() (running bool, pending int), warnAt int) CheckFunc {
	return func() Check {
		running, pending := getState()
		check := Check{
			Name: "replication",
			Details: map[string]any{
				"running":         running,
				"pending_batches": pending,
			},
		}

		switch {
		case !running:
			check.Status = StatusDegraded
			check.Message = "Synchronizer not running"
		case pending >= warnAt:
			check.Status = StatusDegraded
			check.Message = "Retry backlog is growing"
		default:
			check.Status = StatusHealthy
			check.Message = "Replication healthy"
		}
		return check
	}
}

// StoreCheck is a liveness check: it completes only if the store lock can be
// taken, so a wedged writer shows up as a hung probe.
func StoreCheck(getStats func() (words, groups int)) CheckFunc {
	return func() Check {
		words, groups := getStats()
		return Check{
			Name:    "store",
			Status:  StatusHealthy,
			Message: "Store responding",
			Details: map[string]any{
				"words":  words,
				"groups": groups,
			},
		}
	}
}
