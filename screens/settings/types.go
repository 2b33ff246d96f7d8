package settings

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"flow-settings/pkg/controller"
	"flow-settings/pkg/input"
	"flow-settings/pkg/portal"
	"flow-settings/ui"
	remotewidget "flow-settings/widgets/remote"
	settingswidget "flow-settings/widgets/settings"
	"flow-settings/widgets/tabs"
)

// How long a save status stays on screen
const statusTimeout = 3 * time.Second

// SettingsScreen is the root screen: a backdrop with the settings popup on top
type SettingsScreen struct {
	title string
	ctrl  *controller.Controller

	// SDL2 rendering
	window   *sdl.Window
	renderer *sdl.Renderer

	// UI components
	fonts          *ui.Fonts
	tabsWidget     *tabs.Widget
	settingsWidget *settingswidget.Widget
	remoteWidget   *remotewidget.Widget
	popupVisible   bool
	closeRequested bool

	// Remote control portal, nil when disabled
	portal *portal.Portal

	// Status line bookkeeping
	statusText    string
	statusShownAt time.Time

	// Input tracking
	keyState     []uint8
	mouseX       int32
	mouseY       int32
	mouseButtons uint32

	keyTracker    input.KeyPressTracker
	repeatTracker input.KeyRepeatTracker
	mouseTracker  input.MousePressTracker
}
