package command

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-service"
	"github.com/theUltimateZoltan/Realms/internal/listener"
	"golang.org/x/crypto/ssh"
)

type ListenerType int

const (
	ListenerTypeTelnet ListenerType = iota
	ListenerTypeSSH
	ListenerTypeWebsocket
)

const defaultWebsocketPath = "/ws"

var listenerTypeNames = map[string]ListenerType{
	"telnet":    ListenerTypeTelnet,
	"ssh":       ListenerTypeSSH,
	"websocket": ListenerTypeWebsocket,
}

func (lt *ListenerType) UnmarshalText(text []byte) error {
	t, ok := listenerTypeNames[string(text)]
	if !ok {
		return fmt.Errorf("unknown listener type: %s", text)
	}
	*lt = t
	return nil
}

type ListenerConfig struct {
	Protocol ListenerType `json:"protocol"`
	Port     uint16       `json:"port"`

	// ssh only. An ephemeral key is generated when empty.
	HostKeyPath string `json:"host_key_path,omitempty"`
	// websocket only
	Path string `json:"path,omitempty"`
}

func (cl *ListenerConfig) validate() error {
	el := errors.NewErrorList()

	if cl.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}

	switch cl.Protocol {
	case ListenerTypeSSH:
		if cl.HostKeyPath != "" {
			if _, err := os.Stat(cl.HostKeyPath); err != nil {
				el.Add(fmt.Errorf("invalid host_key_path %q: %w", cl.HostKeyPath, err))
			}
		}
	case ListenerTypeWebsocket:
		if cl.Path != "" && !strings.HasPrefix(cl.Path, "/") {
			el.Add(fmt.Errorf("path %q must start with /", cl.Path))
		}
	}

	return el.Err()
}

func (cl *ListenerConfig) buildListener(cm *listener.ConnectionManager) (service.Worker, error) {
	switch cl.Protocol {
	case ListenerTypeTelnet:
		return listener.NewTelnetListener(cl.Port, cm), nil

	case ListenerTypeSSH:
		hostKey, err := hostSigner(cl.HostKeyPath)
		if err != nil {
			return nil, fmt.Errorf("setting up ssh host key: %w", err)
		}
		return listener.NewSshListener(cl.Port, cm, hostKey), nil

	case ListenerTypeWebsocket:
		path := cl.Path
		if path == "" {
			path = defaultWebsocketPath
		}
		return listener.NewWebsocketListener(cl.Port, path, cm), nil

	default:
		return nil, fmt.Errorf("unknown listener type: %v", cl.Protocol)
	}
}

// hostSigner reads the host key at path, or generates an ed25519 key that
// lives as long as the process when path is empty.
func hostSigner(path string) (ssh.Signer, error) {
	if path == "" {
		slog.Warn("no host_key_path configured for ssh listener, generating ephemeral key")
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating ephemeral key: %w", err)
		}
		return ssh.NewSignerFromKey(key)
	}

	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading host key %q: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parsing host key %q: %w", path, err)
	}
	return signer, nil
}
