package demo

import (
	"time"

	"github.com/bissquit/incident-console/internal/domain"
)

type incidentSeed struct {
	id          string
	number      string
	title       string
	description string
	severity    domain.Severity
	category    string
	status      domain.IncidentStatus
	reported    time.Duration
	resolved    time.Duration
	closed      time.Duration
	users       int
	impact      string
	business    string
	reportedBy  string
	assignedTo  string
	problemID   string
	tags        string
}

// Ages are measured back from the dataset's reference time. Zero means unset,
// users < 0 means unknown.
var incidentSeeds = []incidentSeed{
	{
		id: "inc-1", number: "INC-001", title: "Production API gateway returning 503 errors",
		description: "Error rate on the public API gateway jumped to 45% within five minutes.",
		severity:    domain.SeverityCritical, category: "Infrastructure", status: domain.IncidentStatusInvestigating,
		reported: time.Hour, users: 1500, impact: "All external API consumers affected", business: "high",
		reportedBy: "monitoring", assignedTo: "john.doe", tags: "api,gateway,production",
	},
	{
		id: "inc-2", number: "INC-002", title: "Auth service memory leak causing intermittent failures",
		description: "Auth pods grow steadily in memory until they are OOM killed.",
		severity:    domain.SeverityHigh, category: "Application", status: domain.IncidentStatusIdentified,
		reported: 2 * time.Hour, users: 500, impact: "Login failures for about 30% of users", business: "medium",
		reportedBy: "auto-scaling", assignedTo: "jane.smith", problemID: "p1", tags: "auth,memory",
	},
	{
		id: "inc-3", number: "INC-003", title: "Network latency spike in DC-East region",
		description: "Latency across DC-East switches is three times the baseline.",
		severity:    domain.SeverityHigh, category: "Network", status: domain.IncidentStatusInvestigating,
		reported: 4 * time.Hour, users: 200, impact: "Degraded performance for DC-East services", business: "medium",
		reportedBy: "noc", assignedTo: "net_ops", tags: "network,dc-east",
	},
	{
		id: "inc-4", number: "INC-004", title: "Database replica lag exceeding threshold",
		description: "Read replicas trail the primary by more than 30 seconds.",
		severity:    domain.SeverityMedium, category: "Database", status: domain.IncidentStatusOpen,
		reported: 3 * time.Hour, users: 50, impact: "Stale data on read-only queries", business: "low",
		reportedBy: "dba_team", assignedTo: "dba_team", problemID: "p2", tags: "database,replication",
	},
	{
		id: "inc-5", number: "INC-005", title: "Scheduled backup job failed on storage cluster",
		description: "The nightly backup ran out of space on the storage cluster.",
		severity:    domain.SeverityMedium, category: "Infrastructure", status: domain.IncidentStatusResolved,
		reported: 24 * time.Hour, resolved: 20 * time.Hour, users: -1, impact: "No backup for 24 hours", business: "medium",
		reportedBy: "cron-monitor", assignedTo: "storage_team", tags: "backup,storage",
	},
	{
		id: "inc-6", number: "INC-006", title: "SSL certificate expiry warning for payments domain",
		description: "The payments certificate expires in seven days and auto-renewal did not run.",
		severity:    domain.SeverityMedium, category: "Security", status: domain.IncidentStatusOpen,
		reported: 6 * time.Hour, users: -1, impact: "Payments outage if the certificate lapses", business: "high",
		reportedBy: "monitoring", problemID: "p3", tags: "ssl,payments",
	},
	{
		id: "inc-7", number: "INC-007", title: "Slow dashboard load times during peak hours",
		description: "Dashboard pages take more than ten seconds to render during business hours.",
		severity:    domain.SeverityLow, category: "Application", status: domain.IncidentStatusOpen,
		reported: 12 * time.Hour, users: 30, impact: "Degraded user experience", business: "low",
		reportedBy: "helpdesk", assignedTo: "frontend_team", tags: "frontend,performance",
	},
	{
		id: "inc-8", number: "INC-008", title: "CDN cache invalidation not propagating",
		description: "Purge requests do not reach every edge node.",
		severity:    domain.SeverityLow, category: "Infrastructure", status: domain.IncidentStatusMonitoring,
		reported: 24 * time.Hour, users: 100, impact: "Stale content for some users", business: "low",
		reportedBy: "devops", assignedTo: "infra_team", problemID: "p4", tags: "cdn,cache",
	},
	{
		id: "inc-9", number: "INC-009", title: "Email notification service queue backlog",
		description: "The outbound email queue holds 50k undelivered messages.",
		severity:    domain.SeverityHigh, category: "Application", status: domain.IncidentStatusClosed,
		reported: 48 * time.Hour, resolved: 44 * time.Hour, closed: 40 * time.Hour, users: 2000,
		impact: "Transactional emails not delivered", business: "high",
		reportedBy: "support", assignedTo: "messaging_team", problemID: "p5", tags: "email,queue",
	},
	{
		id: "inc-10", number: "INC-010", title: "Unauthorized access attempt detected on admin panel",
		description: "Repeated failed logins from a suspicious IP range against admin endpoints.",
		severity:    domain.SeverityCritical, category: "Security", status: domain.IncidentStatusClosed,
		reported: 72 * time.Hour, resolved: 70 * time.Hour, closed: 68 * time.Hour, users: 0,
		impact: "No breach confirmed", business: "high",
		reportedBy: "security_team", assignedTo: "security_team", tags: "security,admin",
	},
}

type problemSeed struct {
	id           string
	number       string
	title        string
	description  string
	rootCause    string
	category     string
	permanentFix string
	fixStatus    domain.FixStatus
	fixOwner     string
	fixDue       string
	fixDone      string
	cost         float64
	downtime     int
	knownError   bool
	wikiURL      string
	workaround   string
	priority     domain.Priority
	created      string
	updated      string
}

var problemSeeds = []problemSeed{
	{
		id: "p1", number: "PRB-001", title: "Recurring auth service memory leak",
		description:  "Auth service memory grows until pods are killed, causing repeated incidents.",
		rootCause:    "Token validation library leaks buffers for expired tokens",
		category:     "Software Bug",
		permanentFix: "Upgrade the token validation library",
		fixStatus:    domain.FixStatusInProgress, fixOwner: "john.doe", fixDue: "2026-02-28",
		cost: 5000, downtime: 120, knownError: true,
		wikiURL:    "https://wiki.example.com/ke/auth-memory-leak",
		workaround: "Restart auth pods every four hours",
		priority:   domain.PriorityHigh, created: "2026-01-15T00:00:00Z", updated: "2026-02-10T00:00:00Z",
	},
	{
		id: "p2", number: "PRB-002", title: "Database connection pool exhaustion",
		description:  "The production database runs out of connections at peak.",
		rootCause:    "ORM error paths do not return connections to the pool",
		category:     "Configuration",
		permanentFix: "Cap pool size and add leak detection",
		fixStatus:    domain.FixStatusOpen, fixOwner: "dba_team", fixDue: "2026-03-01",
		cost: 2000, downtime: 60,
		workaround: "Kill idle connections during peak hours",
		priority:   domain.PriorityMedium, created: "2026-01-20T00:00:00Z", updated: "2026-02-08T00:00:00Z",
	},
	{
		id: "p3", number: "PRB-003", title: "SSL certificate expiry automation failure",
		description: "Certificate auto-renewal fails without alerting.",
		category:    "Process Gap",
		fixStatus:   domain.FixStatusOpen,
		downtime:    30,
		workaround:  "Renew certificates manually",
		priority:    domain.PriorityLow, created: "2026-02-01T00:00:00Z", updated: "2026-02-05T00:00:00Z",
	},
	{
		id: "p4", number: "PRB-004", title: "CDN origin failover not triggering",
		description:  "The CDN keeps routing to a dead primary origin.",
		rootCause:    "Health check targets the wrong endpoint",
		category:     "Configuration",
		permanentFix: "Point the CDN health check at /healthz",
		fixStatus:    domain.FixStatusResolved, fixOwner: "infra_team", fixDue: "2026-02-01", fixDone: "2026-01-30",
		cost: 500, downtime: 45,
		priority: domain.PriorityMedium, created: "2026-01-10T00:00:00Z", updated: "2026-01-30T00:00:00Z",
	},
	{
		id: "p5", number: "PRB-005", title: "Email delivery delays during high volume",
		description:  "Transactional email stalls above 10k messages per hour.",
		rootCause:    "Provider-imposed SMTP relay rate limit",
		category:     "Capacity",
		permanentFix: "Move to a dedicated SMTP provider",
		fixStatus:    domain.FixStatusInProgress, fixOwner: "messaging_team", fixDue: "2026-03-15",
		cost: 15000, downtime: 180, knownError: true,
		wikiURL:    "https://wiki.example.com/ke/email-delays",
		workaround: "Prioritize critical transactional mail",
		priority:   domain.PriorityHigh, created: "2026-01-25T00:00:00Z", updated: "2026-02-12T00:00:00Z",
	},
}

type entrySeed struct {
	incidentID string
	ago        time.Duration
	kind       domain.EntryType
	content    string
	author     string
	from       domain.IncidentStatus
	to         domain.IncidentStatus
}

var entrySeeds = []entrySeed{
	{"inc-1", 60 * time.Minute, domain.EntryTypeStatusChange, "Incident opened from automated alert", "monitoring", "", domain.IncidentStatusOpen},
	{"inc-1", 58 * time.Minute, domain.EntryTypeAssignment, "Assigned to john.doe (on-call SRE)", "pagerduty", "", ""},
	{"inc-1", 57 * time.Minute, domain.EntryTypeStatusChange, "Status changed from open to investigating", "john.doe", domain.IncidentStatusOpen, domain.IncidentStatusInvestigating},
	{"inc-1", 50 * time.Minute, domain.EntryTypeNote, "Gateway logs show connection pool exhaustion", "john.doe", "", ""},
	{"inc-1", 45 * time.Minute, domain.EntryTypeCommunication, "Status page updated", "admin", "", ""},
	{"inc-1", 30 * time.Minute, domain.EntryTypeEscalation, "Escalated to infrastructure team lead", "john.doe", "", ""},
	{"inc-1", 15 * time.Minute, domain.EntryTypeNote, "Load balancer misconfiguration found after last deploy", "infra_lead", "", ""},
	{"inc-2", 2 * time.Hour, domain.EntryTypeStatusChange, "Incident opened", "auto-scaling", "", domain.IncidentStatusOpen},
	{"inc-2", 25 * time.Minute, domain.EntryTypeStatusChange, "Status changed from investigating to identified", "jane.smith", domain.IncidentStatusInvestigating, domain.IncidentStatusIdentified},
	{"inc-2", 3 * time.Hour / 2, domain.EntryTypeCommunication, "Stakeholders notified of resolution ETA", "admin", "", ""},
	{"inc-3", 4 * time.Hour, domain.EntryTypeStatusChange, "Incident opened", "noc", "", domain.IncidentStatusOpen},
	{"inc-3", 35 * time.Minute, domain.EntryTypeAssignment, "Assigned to net_ops", "admin", "", ""},
	{"inc-3", 5 * time.Hour / 2, domain.EntryTypeNote, "Patching switches in DC-East", "net_ops", "", ""},
	{"inc-4", 3 * time.Hour, domain.EntryTypeStatusChange, "Incident opened", "dba_team", "", domain.IncidentStatusOpen},
	{"inc-4", 2 * time.Hour, domain.EntryTypeNote, "Replica failover rehearsal completed", "dba_team", "", ""},
	{"inc-5", 24 * time.Hour, domain.EntryTypeStatusChange, "Incident opened", "cron-monitor", "", domain.IncidentStatusOpen},
	{"inc-5", 20 * time.Hour, domain.EntryTypeResolution, "Freed space and re-ran backup", "storage_team", domain.IncidentStatusIdentified, domain.IncidentStatusResolved},
	{"inc-6", 6 * time.Hour, domain.EntryTypeStatusChange, "Incident opened", "monitoring", "", domain.IncidentStatusOpen},
	{"inc-7", 12 * time.Hour, domain.EntryTypeStatusChange, "Incident opened", "helpdesk", "", domain.IncidentStatusOpen},
	{"inc-8", 24 * time.Hour, domain.EntryTypeStatusChange, "Incident opened", "devops", "", domain.IncidentStatusOpen},
	{"inc-8", 8 * time.Hour, domain.EntryTypeStatusChange, "Status changed from identified to monitoring", "infra_team", domain.IncidentStatusIdentified, domain.IncidentStatusMonitoring},
	{"inc-9", 44 * time.Hour, domain.EntryTypeResolution, "Queue drained after relay limit raised", "messaging_team", domain.IncidentStatusMonitoring, domain.IncidentStatusResolved},
	{"inc-9", 40 * time.Hour, domain.EntryTypeStatusChange, "Status changed from resolved to closed", "admin", domain.IncidentStatusResolved, domain.IncidentStatusClosed},
	{"inc-10", 70 * time.Hour, domain.EntryTypeResolution, "IP range blocked at the edge", "security_team", domain.IncidentStatusInvestigating, domain.IncidentStatusResolved},
}

var chartColors = map[string]string{
	"critical":       "#d9534f",
	"high":           "#f0ad4e",
	"medium":         "#5bc0de",
	"low":            "#777777",
	"open":           "#d9534f",
	"investigating":  "#f0ad4e",
	"identified":     "#5bc0de",
	"monitoring":     "#337ab7",
	"resolved":       "#5cb85c",
	"closed":         "#777777",
	"Infrastructure": "#337ab7",
	"Application":    "#5cb85c",
	"Security":       "#d9534f",
	"Network":        "#f0ad4e",
	"Database":       "#5bc0de",
}

// slaCompliancePct is reported as-is; the dataset carries no SLA targets.
const slaCompliancePct = 87
