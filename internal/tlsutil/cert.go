// Package tlsutil serves the admin API over TLS. It loads a configured key
// pair or generates a self-signed one, and lets plain HTTP and HTTPS share a
// single port.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/prasenjit/go-intentions/internal/config"
)

const (
	certFileName = "server.crt"
	keyFileName  = "server.key"

	certValidity = 365 * 24 * time.Hour
)

// ErrNoCertificate is returned when no key pair exists and generation is off
var ErrNoCertificate = errors.New("no TLS certificate found and auto-generation is disabled")

// CertificateManager resolves the admin API certificate
type CertificateManager struct {
	certFile     string
	keyFile      string
	storePath    string
	autoGenerate bool
	hosts        []string
}

// NewCertificateManager creates a manager for cfg. defaultStore is used when
// cfg.StorePath is empty. hosts are added to generated certificates as extra
// subject alternative names.
func NewCertificateManager(cfg config.TLSConfig, defaultStore string, hosts ...string) *CertificateManager {
	storePath := cfg.StorePath
	if storePath == "" {
		storePath = defaultStore
	}

	return &CertificateManager{
		certFile:     cfg.CertFile,
		keyFile:      cfg.KeyFile,
		storePath:    storePath,
		autoGenerate: cfg.AutoGenerate,
		hosts:        hosts,
	}
}

// Paths returns the certificate and key files in use
func (cm *CertificateManager) Paths() (certPath, keyPath string) {
	if cm.certFile != "" && cm.keyFile != "" {
		return cm.certFile, cm.keyFile
	}
	return filepath.Join(cm.storePath, certFileName), filepath.Join(cm.storePath, keyFileName)
}

// Certificate loads the configured key pair, then the stored one, and
// finally generates a self-signed pair when allowed.
func (cm *CertificateManager) Certificate() (*tls.Certificate, error) {
	certPath, keyPath := cm.Paths()

	if cm.certFile != "" && cm.keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load certificate from %s and %s: %w", certPath, keyPath, err)
		}
		return &cert, nil
	}

	if cert, err := tls.LoadX509KeyPair(certPath, keyPath); err == nil {
		return &cert, nil
	}

	if !cm.autoGenerate {
		return nil, ErrNoCertificate
	}

	certPEM, keyPEM, err := selfSigned(cm.hosts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cm.storePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create certificate store directory: %w", err)
	}
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return nil, fmt.Errorf("failed to save certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return nil, fmt.Errorf("failed to save private key: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated certificate: %w", err)
	}
	return &cert, nil
}

// TLSConfig returns a server TLS configuration holding the certificate
func (cm *CertificateManager) TLSConfig() (*tls.Config, error) {
	cert, err := cm.Certificate()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// selfSigned creates a PEM encoded ECDSA key pair valid for localhost, the
// local interface addresses and hosts
func selfSigned(hosts []string) (certPEM, keyPEM []byte, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Go-Intentions"},
			CommonName:   "Go-Intentions Self-Signed",
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(certValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	if ips, err := localIPs(); err == nil {
		template.IPAddresses = append(template.IPAddresses, ips...)
	}
	for _, host := range hosts {
		addSAN(&template, host)
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}

// addSAN adds host as an IP or DNS name. Wildcard listen addresses are ignored.
func addSAN(template *x509.Certificate, host string) {
	if host == "" || host == "0.0.0.0" || host == "::" {
		return
	}
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = append(template.IPAddresses, ip)
		return
	}
	template.DNSNames = append(template.DNSNames, host)
}

// localIPs returns all non-loopback local IP addresses
func localIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			ips = append(ips, ipnet.IP)
		}
	}
	return ips, nil
}
