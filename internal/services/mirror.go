package services

import (
	"log"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/nasmini/backend/internal/config"
	"github.com/nasmini/backend/internal/storage"
)

// FTPMirror copies completed uploads to an FTP server, one directory per
// user. Mirroring is best-effort: failures are logged and never surfaced to
// the uploader.
type FTPMirror struct {
	addr     string
	username string
	password string
	path     string
	store    *storage.Store
}

// NewFTPMirror returns nil when no mirror target is configured.
func NewFTPMirror(cfg *config.Config, store *storage.Store) *FTPMirror {
	if cfg.FTPAddr == "" {
		return nil
	}
	return &FTPMirror{
		addr:     cfg.FTPAddr,
		username: cfg.FTPUser,
		password: cfg.FTPPassword,
		path:     cfg.FTPPath,
		store:    store,
	}
}

func (m *FTPMirror) MirrorUpload(user, name string) {
	f, _, err := m.store.Open(user, name)
	if err != nil {
		log.Printf("Mirror: cannot open %s/%s: %v", user, name, err)
		return
	}
	defer f.Close()

	conn, err := ftp.Dial(m.addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		log.Printf("Mirror: FTP connection failed: %v", err)
		return
	}
	defer conn.Quit()

	if err := conn.Login(m.username, m.password); err != nil {
		log.Printf("Mirror: FTP login failed: %v", err)
		return
	}

	if m.path != "" && m.path != "/" {
		if err := conn.ChangeDir(m.path); err != nil {
			conn.MakeDir(m.path)
			if err := conn.ChangeDir(m.path); err != nil {
				log.Printf("Mirror: FTP directory change failed: %v", err)
				return
			}
		}
	}

	if err := conn.ChangeDir(user); err != nil {
		conn.MakeDir(user)
		if err := conn.ChangeDir(user); err != nil {
			log.Printf("Mirror: FTP user directory failed: %v", err)
			return
		}
	}

	if err := conn.Stor(name, f); err != nil {
		log.Printf("Mirror: FTP upload failed for %s/%s: %v", user, name, err)
		return
	}
	log.Printf("Mirror: uploaded %s/%s to %s", user, name, m.addr)
}
