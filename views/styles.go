package views

import (
	"strings"

	"agromart/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	GreenColor  = lipgloss.Color("#10B981")
	RedColor    = lipgloss.Color("#F87171")
	BlueColor   = lipgloss.Color("#60A5FA")
	YellowColor = lipgloss.Color("#FBBF24")
	MutedColor  = lipgloss.Color("#9CA3AF")

	Title   = lipgloss.NewStyle().Bold(true).Foreground(GreenColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)
	Success = lipgloss.NewStyle().Foreground(GreenColor)
	Error   = lipgloss.NewStyle().Foreground(RedColor)
)

// Badge renders an order status the way order lists show it.
func Badge(s models.OrderStatus) string {
	color := MutedColor
	switch s {
	case models.StatusPending:
		color = YellowColor
	case models.StatusConfirmed:
		color = BlueColor
	case models.StatusDelivered:
		color = GreenColor
	case models.StatusCancelled:
		color = RedColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(strings.ToUpper(s.String()))
}

func rule() string {
	return Muted.Render(strings.Repeat("─", 50))
}
