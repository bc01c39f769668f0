package projections

import "errors"

// DashboardCard links to one section of the club workspace.
type DashboardCard struct {
	Slug        string
	Title       string
	Description string
	Href        string
}

// Dashboard is the /app/home view model.
type Dashboard struct {
	Greeting   string
	RoleLabel  string
	TenantName string
	Cards      []DashboardCard
}

// Section is a club workspace page. Body is markdown.
type Section struct {
	Slug  string
	Title string
	Body  string
}

// ErrUnknownSection is returned for a slug outside the workspace sections.
var ErrUnknownSection = errors.New("unknown section")

var sections = []Section{
	{Slug: "roster", Title: "Roster", Body: "Manage **players and staff** across every team in the club.\n\nRoster imports and team assignments appear here once your club admin enables them."},
	{Slug: "reviews", Title: "Reviews", Body: "Collect **player evaluations** from coaches each season.\n\nReview cycles are scheduled by the director of coaching."},
	{Slug: "education", Title: "Education", Body: "Coaching **curriculum and licensing** resources for your staff."},
	{Slug: "recruitment", Title: "Recruitment", Body: "Track **tryout registrations** and offers for the upcoming season."},
	{Slug: "fields", Title: "Fields", Body: "See **field availability** and book training slots."},
}

var cardDescriptions = map[string]string{
	"roster":      "Players, staff and team assignments",
	"reviews":     "Seasonal player evaluations",
	"education":   "Curriculum and coaching resources",
	"recruitment": "Tryouts and offers",
	"fields":      "Field schedules and bookings",
}

// QueryGetDashboard builds the home page from an already loaded shell.
// PRE: shell came from QueryGetAppShell
// POST: Cards lists every workspace section in sidebar order
func QueryGetDashboard(shell AppShell) Dashboard {
	d := Dashboard{
		Greeting:  shell.Greeting,
		RoleLabel: shell.RoleLabel,
	}
	if shell.CurrentTenant != nil {
		d.TenantName = shell.CurrentTenant.Name
	}
	for _, s := range sections {
		d.Cards = append(d.Cards, DashboardCard{
			Slug:        s.Slug,
			Title:       s.Title,
			Description: cardDescriptions[s.Slug],
			Href:        "/app/" + s.Slug,
		})
	}
	return d
}

// QueryGetSection returns the workspace section for slug.
func QueryGetSection(slug string) (Section, error) {
	for _, s := range sections {
		if s.Slug == slug {
			return s, nil
		}
	}
	return Section{}, ErrUnknownSection
}
