package probe

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math"
	"strings"
	"time"

	"webInspector/internal/output"
)

// certTimeLayout renders validity bounds the way openssl prints them
const certTimeLayout = "Jan _2 15:04:05 2006 GMT"

// ExtractCertificate snapshots the leaf certificate of the connection state.
// Returns nil if no peer certificates are present.
func ExtractCertificate(connState *tls.ConnectionState, now time.Time) *output.CertificateSnapshot {
	if connState == nil || len(connState.PeerCertificates) == 0 {
		return nil
	}
	return SnapshotCertificate(connState.PeerCertificates[0], now)
}

// SnapshotCertificate converts an x509.Certificate into the report form.
// now anchors DaysRemaining and IsExpired.
func SnapshotCertificate(cert *x509.Certificate, now time.Time) *output.CertificateSnapshot {
	snap := &output.CertificateSnapshot{
		Subject:            formatName(cert.Subject),
		Issuer:             formatName(cert.Issuer),
		ValidFrom:          cert.NotBefore.UTC().Format(certTimeLayout),
		ValidTo:            cert.NotAfter.UTC().Format(certTimeLayout),
		DaysRemaining:      daysRemaining(cert.NotAfter, now),
		SerialNumber:       formatSerial(cert.SerialNumber.Bytes()),
		Fingerprint:        formatFingerprint(sha1Sum(cert.Raw)),
		Fingerprint256:     formatFingerprint(sha256Sum(cert.Raw)),
		SANs:               cert.DNSNames,
		IsExpired:          now.After(cert.NotAfter),
		IsSelfSigned:       isSelfSigned(cert),
		SignatureAlgorithm: cert.SignatureAlgorithm.String(),
	}

	snap.KeyAlgorithm, snap.KeySize = extractKeyInfo(cert)
	return snap
}

// daysRemaining is floor((notAfter - now) / 24h); negative once expired
func daysRemaining(notAfter, now time.Time) int {
	return int(math.Floor(float64(notAfter.Sub(now)) / float64(24*time.Hour)))
}

// formatName returns the common name, or the remaining distinguished name
// attributes as comma-joined key=value pairs when there is none.
func formatName(name pkix.Name) string {
	if name.CommonName != "" {
		return name.CommonName
	}

	var parts []string
	add := func(key string, values []string) {
		for _, v := range values {
			parts = append(parts, key+"="+v)
		}
	}
	add("C", name.Country)
	add("ST", name.Province)
	add("L", name.Locality)
	add("O", name.Organization)
	add("OU", name.OrganizationalUnit)
	return strings.Join(parts, ", ")
}

// isSelfSigned checks whether a certificate is self-signed by comparing
// the raw subject and issuer ASN.1 bytes and verifying the signature.
func isSelfSigned(cert *x509.Certificate) bool {
	if !bytes.Equal(cert.RawIssuer, cert.RawSubject) {
		return false
	}
	return cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
}

// extractKeyInfo returns the public key algorithm name and key size in bits.
func extractKeyInfo(cert *x509.Certificate) (algorithm string, size int) {
	switch key := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return "RSA", key.N.BitLen()
	case *ecdsa.PublicKey:
		return "ECDSA", key.Curve.Params().BitSize
	case ed25519.PublicKey:
		return "Ed25519", len(key) * 8
	default:
		return cert.PublicKeyAlgorithm.String(), 0
	}
}

// formatSerial formats a certificate serial number as upper-case hex.
func formatSerial(b []byte) string {
	if len(b) == 0 {
		return "00"
	}
	return fmt.Sprintf("%X", b)
}

// formatFingerprint formats a digest as colon-separated upper-case hex.
func formatFingerprint(sum []byte) string {
	parts := make([]string, len(sum))
	for i, v := range sum {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}

func sha1Sum(b []byte) []byte {
	sum := sha1.Sum(b)
	return sum[:]
}

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
