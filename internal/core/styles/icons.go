package styles

import "github.com/colonyops/toast/internal/core/notify"

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconSuccess = "\uf00c" // nf-fa-check
	IconError   = "\uf00d" // nf-fa-xmark
	IconWarning = "\uf071" // nf-fa-triangle_exclamation
	IconInfo    = "\uf05a" // nf-fa-circle_info
	IconBell    = "\uf0f3" // nf-fa-bell
)

// KindIcon returns the icon shown next to a notification of the given kind.
func KindIcon(k notify.Kind) string {
	switch k {
	case notify.KindSuccess:
		return IconSuccess
	case notify.KindError:
		return IconError
	case notify.KindWarning:
		return IconWarning
	default:
		return IconInfo
	}
}
