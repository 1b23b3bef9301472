// Package bootstrap crea el primer principal admin desde la CLI.
package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Juara-1/warung-backend/internal/auth"
	"github.com/Juara-1/warung-backend/internal/domain/repository"
)

// Registrar es la parte de auth.Verifier que usa el bootstrap.
type Registrar interface {
	Register(ctx context.Context, in auth.RegisterInput) (repository.Principal, error)
}

// AdminConfig: lo que falte (handle o secreto) se pide por In/Out.
type AdminConfig struct {
	Registrar   Registrar
	LoginHandle string
	Secret      string
	DisplayName string
	In          io.Reader              // default os.Stdin
	Out         io.Writer              // default os.Stdout
	ReadSecret  func() (string, error) // default: terminal sin eco
}

// CreateAdmin registra un principal con rol admin. El secreto pasa por la
// misma política que cualquier registro.
func CreateAdmin(ctx context.Context, cfg AdminConfig) (repository.Principal, error) {
	if cfg.Registrar == nil {
		return repository.Principal{}, errors.New("bootstrap: nil registrar")
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.ReadSecret == nil {
		cfg.ReadSecret = readTerminalSecret
	}

	handle, secret, err := promptMissing(cfg)
	if err != nil {
		return repository.Principal{}, err
	}

	p, err := cfg.Registrar.Register(ctx, auth.RegisterInput{
		LoginHandle: handle,
		Secret:      secret,
		DisplayName: cfg.DisplayName,
		Role:        repository.RoleAdmin,
	})
	if err != nil {
		return repository.Principal{}, fmt.Errorf("bootstrap: create admin: %w", err)
	}

	fmt.Fprintf(cfg.Out, "admin created: id=%s handle=%s\n", p.ID, p.LoginHandle)
	return p, nil
}

func promptMissing(cfg AdminConfig) (handle, secret string, err error) {
	handle = strings.TrimSpace(cfg.LoginHandle)
	if handle == "" {
		fmt.Fprint(cfg.Out, "Admin login handle: ")
		line, err := bufio.NewReader(cfg.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", err
		}
		handle = strings.TrimSpace(line)
		if handle == "" {
			return "", "", errors.New("bootstrap: login handle cannot be empty")
		}
	}

	secret = cfg.Secret
	if secret != "" {
		return handle, secret, nil
	}

	fmt.Fprint(cfg.Out, "Admin secret: ")
	if secret, err = cfg.ReadSecret(); err != nil {
		return "", "", err
	}
	fmt.Fprintln(cfg.Out)
	fmt.Fprint(cfg.Out, "Confirm secret: ")
	confirm, err := cfg.ReadSecret()
	if err != nil {
		return "", "", err
	}
	fmt.Fprintln(cfg.Out)
	if secret != confirm {
		return "", "", errors.New("bootstrap: secrets do not match")
	}
	return handle, secret, nil
}

func readTerminalSecret() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
