package cdn

import (
	"fmt"
	"time"
)

// Jar installs the signed-cookie triple and keeps the client in sync with
// what is stored.
type Jar struct {
	storage    *CookieStorage
	bundlePath string
	client     *Client
	now        func() time.Time
}

// NewJar creates a jar. bundlePath is the signed-cookie file installed on
// unlock; client may be nil.
func NewJar(storage *CookieStorage, bundlePath string, client *Client) *Jar {
	return &Jar{storage: storage, bundlePath: bundlePath, client: client, now: time.Now}
}

// Current returns the installed triple, or nil.
func (j *Jar) Current() *SignedCookies {
	c, err := j.storage.Load()
	if err != nil {
		return nil
	}
	return c
}

// Valid reports whether an unexpired triple is installed. A valid triple
// is also handed to the client.
func (j *Jar) Valid() bool {
	c := j.Current()
	if !c.Valid(j.now()) {
		return false
	}
	if j.client != nil {
		j.client.SetCookies(c)
	}
	return true
}

// Install reads the configured bundle and installs it.
func (j *Jar) Install() error {
	c, err := LoadBundle(j.bundlePath)
	if err != nil {
		// A triple delivered through re-authentication is good enough.
		if j.Valid() {
			return nil
		}
		return err
	}
	return j.Set(c)
}

// Set installs c.
func (j *Jar) Set(c *SignedCookies) error {
	if err := j.storage.Save(c); err != nil {
		return fmt.Errorf("failed to install cookies: %w", err)
	}
	if j.client != nil {
		j.client.SetCookies(c)
	}
	return nil
}

// Clear removes the installed triple.
func (j *Jar) Clear() error {
	if j.client != nil {
		j.client.SetCookies(nil)
	}
	return j.storage.Delete()
}
