package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lifecycle state of an issue. Values are wire labels.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
)

// Statuses lists all states in canonical order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Terminal reports whether the status counts as resolved for the
// resolvedAt stamp and the resolution statistics.
func (s Status) Terminal() bool { return s == StatusResolved || s == StatusClosed }

// Priority is the urgency of an issue.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Rank orders priorities Critical > High > Medium > Low. Lexical order on
// the labels would put High above Critical, so sorting always goes
// through this.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Severity is the impact of an issue.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityMajor    Severity = "Major"
	SeverityCritical Severity = "Critical"
)

var Severities = []Severity{SeverityMinor, SeverityMajor, SeverityCritical}

func (s Severity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Issue is a trackable unit of work.
type Issue struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Status      Status              `bson:"status" json:"status"`
	Priority    Priority            `bson:"priority" json:"priority"`
	Severity    Severity            `bson:"severity" json:"severity"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
	ResolvedAt  *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

// IssueUpdate carries a partial update; nil means "leave unchanged".
type IssueUpdate struct {
	Title         *string
	Description   *string
	Status        *Status
	Priority      *Priority
	Severity      *Severity
	Assignee      *primitive.ObjectID
	ClearAssignee bool
}

// Apply mutates the issue in place. resolvedAt is stamped exactly once,
// on the first transition into a terminal status, and never cleared or
// moved afterwards. Stores must run this under their own atomicity; the
// Mongo store mirrors it as a single pipeline update instead.
func (u IssueUpdate) Apply(i *Issue, now time.Time) {
	if u.Title != nil {
		i.Title = *u.Title
	}
	if u.Description != nil {
		i.Description = *u.Description
	}
	if u.Status != nil {
		i.Status = *u.Status
		if i.Status.Terminal() && i.ResolvedAt == nil {
			t := now
			i.ResolvedAt = &t
		}
	}
	if u.Priority != nil {
		i.Priority = *u.Priority
	}
	if u.Severity != nil {
		i.Severity = *u.Severity
	}
	if u.Assignee != nil {
		i.AssignedTo = u.Assignee
	}
	if u.ClearAssignee {
		i.AssignedTo = nil
	}
	i.UpdatedAt = now
}

// User is an account record. The bcrypt hash lives in the password field
// of the stored document and never serializes to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserInfo is the public profile slice of a user.
type UserInfo struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// Info strips a user down to its public profile.
func (u User) Info() UserInfo { return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email} }

// ScopeKind selects the filter predicate of a Scope.
type ScopeKind int

const (
	ScopeAll      ScopeKind = iota // every issue
	ScopeCreated                   // createdBy = User
	ScopeAssigned                  // assignedTo = User
	ScopeInvolved                  // createdBy = User OR assignedTo = User
)

// Scope is the filter predicate defining which issues an aggregation
// considers.
type Scope struct {
	Kind ScopeKind
	User primitive.ObjectID
}

func GlobalScope() Scope                        { return Scope{Kind: ScopeAll} }
func CreatedScope(id primitive.ObjectID) Scope  { return Scope{Kind: ScopeCreated, User: id} }
func AssignedScope(id primitive.ObjectID) Scope { return Scope{Kind: ScopeAssigned, User: id} }
func InvolvedScope(id primitive.ObjectID) Scope { return Scope{Kind: ScopeInvolved, User: id} }

// ListQuery is the filter/pagination/sort envelope for issue listing.
type ListQuery struct {
	Status    Status
	Priority  Priority
	Severity  Severity
	Search    string
	Page      int64
	Limit     int64
	SortBy    string
	SortOrder string
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
	Limit int64 `json:"limit"`
}

// BreakdownEntry is one row of a count-and-percentage distribution.
// Percentage is a one-decimal string; "0" when the scoped total is zero.
type BreakdownEntry struct {
	Label      string `json:"label"`
	Count      int64  `json:"count"`
	Percentage string `json:"percentage"`
}

// TimeStats counts issues created within rolling windows anchored to the
// request time. The windows overlap by definition. Every field always
// serializes, zero counts included.
type TimeStats struct {
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"thisWeek"`
	ThisMonth int64 `json:"thisMonth"`
	ThisYear  int64 `json:"thisYear"`
}

// DashboardTimeStats is the dashboard's window set; the yearly window
// belongs to analytics.
type DashboardTimeStats struct {
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"thisWeek"`
	ThisMonth int64 `json:"thisMonth"`
}

// ResolutionAggregate is the raw store rollup of resolvedAt − createdAt,
// in milliseconds, over issues carrying a resolvedAt.
type ResolutionAggregate struct {
	Count int64
	AvgMS float64
	MinMS float64
	MaxMS float64
}

// ResolutionStats summarizes resolvedAt − createdAt over resolved issues.
// Day figures round to two decimals; the rate is a percentage string.
type ResolutionStats struct {
	TotalResolved     int64   `json:"totalResolved"`
	AvgResolutionDays float64 `json:"avgResolutionDays"`
	MinResolutionDays float64 `json:"minResolutionDays"`
	MaxResolutionDays float64 `json:"maxResolutionDays"`
	ResolutionRate    string  `json:"resolutionRate"`
}

// MonthCount is a raw store row: issues created in one calendar month.
type MonthCount struct {
	Year  int
	Month int
	Count int64
}

// TrendEntry is one formatted point of the monthly trend series.
type TrendEntry struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// ActorField names a user-reference field issues can be grouped by.
// Values double as the stored field keys.
type ActorField string

const (
	ActorCreator  ActorField = "createdBy"
	ActorAssignee ActorField = "assignedTo"
)

// ActorCount is a raw store row: issue count grouped by an actor field.
type ActorCount struct {
	UserID primitive.ObjectID
	Count  int64
}

// TopContributor is an actor count joined to the user profile.
type TopContributor struct {
	UserID primitive.ObjectID `json:"userId"`
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Count  int64              `json:"count"`
}

// IssueWithUsers is an issue enriched with the profiles its actor ids
// point at. A profile missing from the user store stays nil.
type IssueWithUsers struct {
	Issue
	Creator  *UserInfo `json:"creator,omitempty"`
	Assignee *UserInfo `json:"assignee,omitempty"`
}

// Dashboard is one user's personal operational snapshot.
type Dashboard struct {
	MyIssues           int64            `json:"myIssues"`
	MyOpenIssues       int64            `json:"myOpenIssues"`
	MyInProgressIssues int64            `json:"myInProgressIssues"`
	MyResolvedIssues   int64            `json:"myResolvedIssues"`
	MyClosedIssues     int64            `json:"myClosedIssues"`
	MyIssuesByStatus   map[Status]int64 `json:"myIssuesByStatus"`

	AssignedToMe       int64 `json:"assignedToMe"`
	AssignedOpen       int64 `json:"assignedOpen"`
	AssignedInProgress int64 `json:"assignedInProgress"`
	AssignedUnresolved int64 `json:"assignedUnresolved"`

	TimeStats DashboardTimeStats `json:"timeStats"`

	StatusBreakdown   []BreakdownEntry `json:"statusBreakdown"`
	PriorityBreakdown []BreakdownEntry `json:"priorityBreakdown"`
	SeverityBreakdown []BreakdownEntry `json:"severityBreakdown"`

	RecentMyIssues       []IssueWithUsers `json:"recentMyIssues"`
	RecentAssignedIssues []IssueWithUsers `json:"recentAssignedIssues"`
	RecentActivity       []IssueWithUsers `json:"recentActivity"`
	HighPriorityAssigned []Issue          `json:"highPriorityAssigned"`
}

// GeneralAnalytics is the system-wide report.
type GeneralAnalytics struct {
	TotalIssues       int64            `json:"totalIssues"`
	StatusBreakdown   []BreakdownEntry `json:"statusBreakdown"`
	PriorityBreakdown []BreakdownEntry `json:"priorityBreakdown"`
	SeverityBreakdown []BreakdownEntry `json:"severityBreakdown"`
	TimeStats         TimeStats        `json:"timeStats"`
	ResolutionStats   ResolutionStats  `json:"resolutionStats"`
	TopCreators       []TopContributor `json:"topCreators"`
	TopAssignees      []TopContributor `json:"topAssignees"`
	MonthlyTrend      []TrendEntry     `json:"monthlyTrend"`
}

// ScopedAnalytics is the full per-scope report used for the "created by
// user" side of per-user analytics.
type ScopedAnalytics struct {
	Total             int64            `json:"total"`
	StatusBreakdown   []BreakdownEntry `json:"statusBreakdown"`
	PriorityBreakdown []BreakdownEntry `json:"priorityBreakdown"`
	SeverityBreakdown []BreakdownEntry `json:"severityBreakdown"`
	TimeStats         TimeStats        `json:"timeStats"`
	ResolutionStats   ResolutionStats  `json:"resolutionStats"`
	MonthlyTrend      []TrendEntry     `json:"monthlyTrend"`
}

// AssignedAnalytics is the deliberately thinner "assigned to user" side:
// status breakdown only.
type AssignedAnalytics struct {
	Total           int64            `json:"total"`
	StatusBreakdown []BreakdownEntry `json:"statusBreakdown"`
}

// UserAnalytics is the per-user report.
type UserAnalytics struct {
	User     UserInfo          `json:"user"`
	Created  ScopedAnalytics   `json:"created"`
	Assigned AssignedAnalytics `json:"assigned"`
}

// Snapshot is one persisted run of the scheduled analytics job.
type Snapshot struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TakenAt    time.Time          `bson:"takenAt" json:"takenAt"`
	DurationMS int64              `bson:"durationMs" json:"durationMs"`
	Trigger    string             `bson:"trigger" json:"trigger"`
	Success    bool               `bson:"success" json:"success"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	Report     *GeneralAnalytics  `bson:"report,omitempty" json:"report,omitempty"`
}
