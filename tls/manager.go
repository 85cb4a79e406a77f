package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/saiset-co/sai-commerce/types"
)

// CertManager serves TLS either from certificate files or via ACME autocert
// with a directory cache.
type CertManager struct {
	ctx         context.Context
	cancel      context.CancelFunc
	logger      types.Logger
	config      *types.TLSConfig
	autocertMgr *autocert.Manager
	started     int32
}

func NewCertManager(ctx context.Context, logger types.Logger, config types.ConfigManager) (types.TLSManager, error) {
	tlsConfig := config.GetConfig().Server.TLS

	managerCtx, cancel := context.WithCancel(ctx)

	cm := &CertManager{
		ctx:    managerCtx,
		cancel: cancel,
		logger: logger,
		config: tlsConfig,
	}

	if tlsConfig.AutoCert {
		if err := cm.initializeAutocert(); err != nil {
			cancel()
			return nil, types.WrapError(err, "failed to initialize autocert manager")
		}
	}

	return cm, nil
}

func (cm *CertManager) Listen(addr string) (net.Listener, error) {
	if cm.config.AutoCert {
		return tls.Listen("tcp", addr, cm.autocertTLSConfig())
	}

	if cm.config.CertFile == "" || cm.config.KeyFile == "" {
		return nil, types.NewError("TLS enabled but cert_file or key_file not specified")
	}

	cert, err := tls.LoadX509KeyPair(cm.config.CertFile, cm.config.KeyFile)
	if err != nil {
		return nil, types.WrapError(err, "failed to load certificate files")
	}

	if err := validateCertificate(cert); err != nil {
		return nil, err
	}

	return tls.Listen("tcp", addr, &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	})
}

func (cm *CertManager) Start() error {
	if !atomic.CompareAndSwapInt32(&cm.started, 0, 1) {
		return types.ErrServerAlreadyRunning
	}

	cm.logger.Info("TLS certificate manager started",
		zap.Bool("autocert", cm.config.AutoCert),
		zap.Strings("domains", cm.config.Domains))
	return nil
}

func (cm *CertManager) Stop() error {
	if !atomic.CompareAndSwapInt32(&cm.started, 1, 0) {
		return types.ErrServerNotRunning
	}

	cm.cancel()
	cm.logger.Info("TLS certificate manager stopped gracefully")
	return nil
}

func (cm *CertManager) IsRunning() bool {
	return atomic.LoadInt32(&cm.started) == 1
}

func (cm *CertManager) initializeAutocert() error {
	if len(cm.config.Domains) == 0 {
		return types.NewError("no domains specified for TLS certificate")
	}

	cacheDir := cm.config.CacheDir
	if cacheDir == "" {
		cacheDir = "./certs"
	}

	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return types.WrapError(err, "failed to create certificate cache directory")
	}

	cm.autocertMgr = &autocert.Manager{
		Cache:      autocert.DirCache(cacheDir),
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cm.config.Domains...),
		Email:      cm.config.Email,
	}

	return nil
}

func (cm *CertManager) autocertTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: cm.autocertMgr.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
	}
}

func validateCertificate(cert tls.Certificate) error {
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return types.WrapError(err, "failed to parse certificate")
	}

	now := time.Now()
	if now.Before(x509Cert.NotBefore) {
		return types.NewError("certificate not yet valid")
	}
	if now.After(x509Cert.NotAfter) {
		return types.NewError("certificate expired")
	}

	return nil
}
