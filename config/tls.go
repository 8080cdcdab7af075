package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// cipherSuitesByName lets a cipher_list config value reference suites by
// their standard names, per spec §4.E's "cipher list" knob.
var cipherSuitesByName = func() map[string]uint16 {
	m := make(map[string]uint16)
	for _, c := range tls.CipherSuites() {
		m[c.Name] = c.ID
	}
	for _, c := range tls.InsecureCipherSuites() {
		m[c.Name] = c.ID
	}
	return m
}()

// BuildTLSConfig constructs a *tls.Config from the shared sub-object, built
// once per transport instance and then shared read-only, per spec §9's
// "TLS contexts are immutable after initialisation" note.
func (t TlsConfig) BuildTLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         minVersionForCompatibility(t.Compatibility),
		InsecureSkipVerify: !t.VerifyPeer && t.CAFile == "",
	}

	if t.CertFile != "" && t.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("config: loading cert/key: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("config: reading ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("config: no certificates found in ca_file %s", t.CAFile)
		}
		cfg.RootCAs = pool
		cfg.ClientCAs = pool
		if t.VerifyPeer {
			cfg.ClientAuth = tls.RequireAndVerifyClientCert
		}
	}

	if len(t.CipherList) > 0 {
		var ids []uint16
		for _, name := range t.CipherList {
			id, ok := cipherSuitesByName[name]
			if !ok {
				return nil, fmt.Errorf("config: unknown cipher %q", name)
			}
			ids = append(ids, id)
		}
		cfg.CipherSuites = ids
	}

	return cfg, nil
}

func minVersionForCompatibility(level string) uint16 {
	switch level {
	case "old":
		return tls.VersionTLS10
	case "intermediate":
		return tls.VersionTLS11
	case "modern", "":
		return tls.VersionTLS12
	}
	return tls.VersionTLS12
}
