package tech

import (
	"net/http"
	"sort"
	"sync"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
)

// Fingerprinter names the technologies visible in a response
type Fingerprinter interface {
	Detect(headers http.Header, body []byte) ([]string, error)
}

// Detector fingerprints the technologies behind a response using the
// wappalyzer signature set. The signature set is loaded on first use.
type Detector struct {
	once      sync.Once
	wappalyze *wappalyzer.Wappalyze
	initErr   error
}

// NewDetector creates a lazily initialised detector
func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) load() error {
	d.once.Do(func() {
		d.wappalyze, d.initErr = wappalyzer.New()
	})
	return d.initErr
}

// Detect returns the sorted technology names found in headers and body.
// The body may be a truncated prefix of the page.
func (d *Detector) Detect(headers http.Header, body []byte) ([]string, error) {
	if err := d.load(); err != nil {
		return nil, err
	}

	fingerprints := d.wappalyze.Fingerprint(headers, body)
	if len(fingerprints) == 0 {
		return nil, nil
	}

	techs := make([]string, 0, len(fingerprints))
	for name := range fingerprints {
		techs = append(techs, name)
	}
	sort.Strings(techs)
	return techs, nil
}
