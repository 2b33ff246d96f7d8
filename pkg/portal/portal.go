// Package portal lets a phone on the same network change the settings. It
// serves a small web page and a JSON API, and renders the page URL as a QR
// code for the Remote tab.
package portal

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"flow-settings/pkg/prefs"
)

// Store is the part of the preference store the portal uses
type Store interface {
	Load(ctx context.Context) (prefs.Record, error)
	Save(ctx context.Context, key string, value any) error
}

// QR code edge length in pixels
const qrSize = 200

// Portal manages the remote settings web server and its QR code
type Portal struct {
	server     *WebServer
	isRunning  bool
	mu         sync.RWMutex
	bindIP     string
	port       int
	url        string
	qrCodeData []byte
	log        *zap.Logger
}

// NewPortal creates a portal that will listen on bindIP:port
func NewPortal(bindIP string, port int, store Store, log *zap.Logger) *Portal {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("portal")
	return &Portal{
		server: NewWebServer(bindIP, port, store, log),
		bindIP: bindIP,
		port:   port,
		log:    log,
	}
}

// Start generates the QR code and starts the web server
func (p *Portal) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		p.log.Debug("Portal is already running")
		return nil
	}

	url := fmt.Sprintf("http://%s", net.JoinHostPort(advertisedHost(p.bindIP), strconv.Itoa(p.port)))
	qrCode, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	p.url = url
	p.qrCodeData = qrCode

	if err := p.server.Start(); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}

	p.isRunning = true
	p.log.Info("Portal started", zap.String("url", url))
	return nil
}

// Stop shuts the web server down
func (p *Portal) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return nil
	}

	if err := p.server.Stop(); err != nil {
		return err
	}
	p.isRunning = false
	return nil
}

// IsRunning returns whether the portal is currently running
func (p *Portal) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning && p.server.IsRunning()
}

// QRCodePNG returns the QR code for the portal URL as PNG bytes
func (p *Portal) QRCodePNG() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.isRunning {
		return nil, fmt.Errorf("portal is not running")
	}
	if p.qrCodeData == nil {
		return nil, fmt.Errorf("QR code not generated")
	}
	return p.qrCodeData, nil
}

// URL returns the address phones should open
func (p *Portal) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}
