package settings

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"flow-settings/pkg/controller"
	"flow-settings/pkg/input"
	"flow-settings/pkg/portal"
	"flow-settings/pkg/theme"
	"flow-settings/ui"
	remotewidget "flow-settings/widgets/remote"
	settingswidget "flow-settings/widgets/settings"
	"flow-settings/widgets/tabs"
)

// NewSettingsScreen creates the screen. p may be nil when the portal is off.
func NewSettingsScreen(window *sdl.Window, renderer *sdl.Renderer, title string, ctrl *controller.Controller, p *portal.Portal, log *zap.Logger) *SettingsScreen {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("screen")

	s := &SettingsScreen{
		title:         title,
		ctrl:          ctrl,
		window:        window,
		renderer:      renderer,
		portal:        p,
		keyTracker:    input.NewKeyPressTracker(),
		repeatTracker: input.NewKeyRepeatTracker(),
		mouseTracker:  input.NewMousePressTracker(),
	}

	fonts, err := ui.LoadFonts()
	if err != nil {
		log.Warn("Failed to initialize fonts", zap.Error(err))
	}
	if fonts == nil {
		fonts = &ui.Fonts{}
	}
	s.fonts = fonts

	s.tabsWidget = tabs.NewWidget()
	s.settingsWidget = settingswidget.NewWidget(len(ctrl.Rows()))

	if p != nil && p.IsRunning() {
		if qrPNG, err := p.QRCodePNG(); err != nil {
			log.Warn("Failed to get QR code", zap.Error(err))
		} else if widget, err := remotewidget.NewWidget(renderer, qrPNG, p.URL()); err != nil {
			log.Warn("Failed to create remote widget", zap.Error(err))
		} else {
			s.remoteWidget = widget
		}
	}

	return s
}

// Update handles SDL2 input and runs the work queued for the render thread
func (s *SettingsScreen) Update() error {
	s.ctrl.Drain()
	s.expireStatus(time.Now())

	s.keyState = sdl.GetKeyboardState()
	s.mouseX, s.mouseY, s.mouseButtons = sdl.GetMouseState()

	if s.popupVisible {
		s.handleUIInput()
	} else {
		s.handleMainInput()
	}
	return nil
}

// CloseRequested reports whether the user picked Close
func (s *SettingsScreen) CloseRequested() bool {
	return s.closeRequested
}

// expireStatus clears a save status once it has been shown long enough
func (s *SettingsScreen) expireStatus(now time.Time) {
	status := s.ctrl.Status()
	if status.Text == "" {
		s.statusText = ""
		return
	}
	if status.Text != s.statusText {
		s.statusText = status.Text
		s.statusShownAt = now
		return
	}
	if now.Sub(s.statusShownAt) >= statusTimeout {
		s.ctrl.ClearStatus()
		s.statusText = ""
	}
}

// handleUIInput processes input when the popup is visible
func (s *SettingsScreen) handleUIInput() {
	now := time.Now()
	onSettings := s.tabsWidget.ActiveTab() == tabs.SettingsTab

	if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_DOWN) {
		switch {
		case s.tabsWidget.Focused() && onSettings:
			s.tabsWidget.SetFocused(false)
		case onSettings:
			s.settingsWidget.MoveSelection(1)
		}
	}

	if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_UP) {
		if onSettings && !s.tabsWidget.Focused() && !s.settingsWidget.MoveSelection(-1) {
			s.tabsWidget.SetFocused(true)
		}
	}

	if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_TAB) {
		s.switchTab(1)
	}

	// Left/Right switch tabs on the tab bar and adjust the selected row
	// otherwise. Held keys repeat so the volume can sweep.
	left := s.repeatTracker.IsRepeated(s.keyState, sdl.SCANCODE_LEFT, now)
	right := s.repeatTracker.IsRepeated(s.keyState, sdl.SCANCODE_RIGHT, now)
	if s.tabsWidget.Focused() || !onSettings {
		if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_LEFT) {
			s.switchTab(-1)
		}
		if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_RIGHT) {
			s.switchTab(1)
		}
	} else {
		// Keep the press trackers in step so a later tab switch is not
		// triggered by a key that was already held
		s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_LEFT)
		s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_RIGHT)
		if left {
			s.ctrl.Adjust(s.settingsWidget.Selected(), -1)
		}
		if right {
			s.ctrl.Adjust(s.settingsWidget.Selected(), 1)
		}
	}

	if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_RETURN) ||
		s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_SPACE) ||
		s.mouseTracker.IsPressed(s.mouseButtons, sdl.ButtonRMask()) {
		s.activateSelection()
	}

	if s.mouseTracker.IsPressed(s.mouseButtons, sdl.ButtonLMask()) {
		s.handleClick(s.mouseX, s.mouseY)
	}

	if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_ESCAPE) {
		s.hideUI()
	}
}

// handleMainInput processes input when no popup is visible
func (s *SettingsScreen) handleMainInput() {
	if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_DOWN) ||
		s.mouseTracker.IsPressed(s.mouseButtons, sdl.ButtonLMask()) {
		s.showUI()
	}
	if s.keyTracker.IsPressed(s.keyState, sdl.SCANCODE_ESCAPE) {
		s.closeRequested = true
	}
}

// handleClick selects tabs and rows under the pointer. A click on a switch
// row toggles it, a click on the slider track jumps to that position.
func (s *SettingsScreen) handleClick(px, py int32) {
	uiX, uiY, uiWidth, _ := s.popupRect()
	if tab, ok := s.tabsWidget.TabAt(uiX, uiY, uiWidth, px, py); ok {
		s.tabsWidget.SetActiveTab(tab)
		s.tabsWidget.SetFocused(true)
		return
	}

	switch s.tabsWidget.ActiveTab() {
	case tabs.SettingsTab:
		row, ok := s.settingsWidget.RowAt(px, py)
		if !ok {
			return
		}
		s.tabsWidget.SetFocused(false)
		s.settingsWidget.SetSelected(row)

		if f, ok := s.settingsWidget.SliderFraction(row, px, py); ok {
			slider := s.ctrl.Rows()[row].Slider
			target := slider.From + f*(slider.To-slider.From)
			steps := int((target - slider.Value()) / slider.Step)
			s.ctrl.Adjust(row, steps)
			return
		}
		s.ctrl.Activate(row)
	case tabs.CloseTab:
		s.hideUI()
	}
}

func (s *SettingsScreen) switchTab(direction int) {
	s.tabsWidget.Switch(direction)
	s.tabsWidget.SetFocused(s.tabsWidget.ActiveTab() != tabs.SettingsTab || s.tabsWidget.Focused())
}

// activateSelection handles Enter/Space on the active tab
func (s *SettingsScreen) activateSelection() {
	switch s.tabsWidget.ActiveTab() {
	case tabs.SettingsTab:
		if s.tabsWidget.Focused() {
			s.tabsWidget.SetFocused(false)
			return
		}
		s.ctrl.Activate(s.settingsWidget.Selected())
	case tabs.CloseTab:
		s.hideUI()
	}
}

// Draw renders the complete frame using SDL2
func (s *SettingsScreen) Draw() error {
	w, h := s.window.GetSize()
	palette := theme.Current()

	ui.DrawGradientRect(s.renderer, 0, 0, w, h, palette.GradientFrom, palette.GradientTo)
	if s.fonts.Large != nil {
		ui.RenderText(s.renderer, s.title, 60, 60, ui.SDLColor(palette.Knob), s.fonts.Large)
	}
	if s.fonts.Small != nil && !s.popupVisible {
		ui.RenderText(s.renderer, "Press Down to open settings", 60, 110, ui.SDLColor(palette.Knob), s.fonts.Small)
	}

	if s.popupVisible {
		if err := s.drawUI(w, h, palette); err != nil {
			return err
		}
	}

	s.renderer.Present()
	return nil
}

// popupRect returns the popup bounds for the current window size
func (s *SettingsScreen) popupRect() (x, y, width, height int32) {
	screenWidth, screenHeight := s.window.GetSize()
	width = int32(float64(screenWidth) * 0.8)
	height = int32(float64(screenHeight) * 0.8)
	return (screenWidth - width) / 2, (screenHeight - height) / 2, width, height
}

// drawUI renders the popup
func (s *SettingsScreen) drawUI(screenWidth, screenHeight int32, palette theme.Palette) error {
	s.renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND)
	ui.FillRect(s.renderer, sdl.Rect{X: 0, Y: 0, W: screenWidth, H: screenHeight}, palette.Overlay)

	uiX, uiY, uiWidth, uiHeight := s.popupRect()
	ui.FillRect(s.renderer, sdl.Rect{X: uiX, Y: uiY, W: uiWidth, H: uiHeight}, palette.Background)

	if err := s.tabsWidget.Draw(s.renderer, uiX, uiY, uiWidth, s.fonts.Medium, palette); err != nil {
		return err
	}

	contentY := uiY + tabs.Height + 20
	contentHeight := uiHeight - tabs.Height - 20

	switch s.tabsWidget.ActiveTab() {
	case tabs.SettingsTab:
		if err := s.settingsWidget.Draw(s.renderer, uiX, contentY, uiWidth, contentHeight, s.ctrl.Rows(), s.ctrl.Status(), s.fonts, palette); err != nil {
			return err
		}
	case tabs.RemoteTab:
		if err := s.remoteWidget.Draw(s.renderer, uiX, contentY, uiWidth, contentHeight, s.fonts, palette); err != nil {
			return err
		}
	case tabs.CloseTab:
		if err := settingswidget.DrawCloseTab(s.renderer, uiX, contentY, uiWidth, contentHeight, s.fonts, palette); err != nil {
			return err
		}
	}

	return s.drawNavigationHints(uiX, uiY, uiHeight, palette)
}

// drawNavigationHints renders helpful navigation hints
func (s *SettingsScreen) drawNavigationHints(uiX, uiY, uiHeight int32, palette theme.Palette) error {
	if s.fonts.Small == nil {
		return nil
	}

	hintY := uiY + uiHeight - 30
	hint := "Up/Down Select | Left/Right Adjust | Enter Toggle | Tab Switch Tabs | ESC Close"
	return ui.RenderText(s.renderer, hint, uiX+20, hintY, ui.SDLColor(palette.TextMuted), s.fonts.Small)
}

// showUI opens the popup on the Settings tab
func (s *SettingsScreen) showUI() {
	s.tabsWidget.SetActiveTab(tabs.SettingsTab)
	s.tabsWidget.SetFocused(false)
	s.settingsWidget.SetSelected(0)
	s.popupVisible = true
}

// hideUI hides the popup
func (s *SettingsScreen) hideUI() {
	s.popupVisible = false
	s.tabsWidget.SetFocused(false)
}

// Close cleans up resources
func (s *SettingsScreen) Close() {
	s.remoteWidget.Destroy()

	if s.fonts != nil {
		s.fonts.Close()
	}
}
