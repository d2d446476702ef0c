package services

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// percentage renders part/whole as a one-decimal percentage string, the
// wire format every breakdown uses. A zero whole yields "0", never a
// division error.
func percentage(part, whole int64) string {
	if whole == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(part)*100/float64(whole), 'f', 1, 64)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// msToDays converts milliseconds to days rounded to two decimals.
func msToDays(ms float64) float64 { return round2(ms / 86400000) }

// statusBreakdown lists the non-zero status buckets in canonical order.
// A scope with no issues yields an empty list.
func statusBreakdown(counts map[domain.Status]int64, total int64) []domain.BreakdownEntry {
	out := []domain.BreakdownEntry{}
	for _, st := range domain.Statuses {
		if n := counts[st]; n > 0 {
			out = append(out, domain.BreakdownEntry{Label: string(st), Count: n, Percentage: percentage(n, total)})
		}
	}
	return out
}

func priorityBreakdown(counts map[domain.Priority]int64, total int64) []domain.BreakdownEntry {
	out := []domain.BreakdownEntry{}
	for _, p := range domain.Priorities {
		if n := counts[p]; n > 0 {
			out = append(out, domain.BreakdownEntry{Label: string(p), Count: n, Percentage: percentage(n, total)})
		}
	}
	return out
}

func severityBreakdown(counts map[domain.Severity]int64, total int64) []domain.BreakdownEntry {
	out := []domain.BreakdownEntry{}
	for _, sev := range domain.Severities {
		if n := counts[sev]; n > 0 {
			out = append(out, domain.BreakdownEntry{Label: string(sev), Count: n, Percentage: percentage(n, total)})
		}
	}
	return out
}

// resolutionStats converts the raw millisecond rollup into the wire
// shape. With nothing resolved every figure is zero and the rate is "0".
func resolutionStats(agg domain.ResolutionAggregate, total int64) domain.ResolutionStats {
	if agg.Count == 0 {
		return domain.ResolutionStats{ResolutionRate: "0"}
	}
	return domain.ResolutionStats{
		TotalResolved:     agg.Count,
		AvgResolutionDays: msToDays(agg.AvgMS),
		MinResolutionDays: msToDays(agg.MinMS),
		MaxResolutionDays: msToDays(agg.MaxMS),
		ResolutionRate:    percentage(agg.Count, total),
	}
}

// trendSeries formats month buckets as "YYYY-MM" points. The rows arrive
// already ascending from the store.
func trendSeries(rows []domain.MonthCount) []domain.TrendEntry {
	out := []domain.TrendEntry{}
	for _, r := range rows {
		out = append(out, domain.TrendEntry{Month: fmt.Sprintf("%04d-%02d", r.Year, r.Month), Count: r.Count})
	}
	return out
}

// Window anchors for the rolling time-window counts. today runs from
// local midnight; the rest subtract calendar units from the request time.
func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func weekAgo(now time.Time) time.Time  { return now.AddDate(0, 0, -7) }
func monthAgo(now time.Time) time.Time { return now.AddDate(0, -1, 0) }
func yearAgo(now time.Time) time.Time  { return now.AddDate(-1, 0, 0) }

func sumCounts[K comparable](m map[K]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}

// collectActorIDs gathers the distinct user ids referenced by a set of
// issues, ready for one batched profile lookup.
func collectActorIDs(lists ...[]domain.Issue) []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, issues := range lists {
		for _, i := range issues {
			add(i.CreatedBy)
			if i.AssignedTo != nil {
				add(*i.AssignedTo)
			}
		}
	}
	return out
}

// attachUsers joins issues to the profiles their actor ids point at.
// Profiles missing from the map stay nil rather than failing the join.
func attachUsers(issues []domain.Issue, profiles map[primitive.ObjectID]domain.UserInfo, withCreator, withAssignee bool) []domain.IssueWithUsers {
	out := make([]domain.IssueWithUsers, 0, len(issues))
	for _, i := range issues {
		e := domain.IssueWithUsers{Issue: i}
		if withCreator {
			if info, ok := profiles[i.CreatedBy]; ok {
				e.Creator = &info
			}
		}
		if withAssignee && i.AssignedTo != nil {
			if info, ok := profiles[*i.AssignedTo]; ok {
				e.Assignee = &info
			}
		}
		out = append(out, e)
	}
	return out
}

// joinContributors resolves ranked actor counts against the profile map,
// dropping actors with no resolvable profile.
func joinContributors(rows []domain.ActorCount, profiles map[primitive.ObjectID]domain.UserInfo) []domain.TopContributor {
	out := []domain.TopContributor{}
	for _, r := range rows {
		info, ok := profiles[r.UserID]
		if !ok {
			continue
		}
		out = append(out, domain.TopContributor{UserID: r.UserID, Name: info.Name, Email: info.Email, Count: r.Count})
	}
	return out
}
