package component

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/prompt"
)

// Defaults offered when the Pi connection settings are first asked for.
const (
	DefaultRaspberryPiHost = "raspberrypi.local"
	DefaultRaspberryPiUser = "pi"
	DefaultRaspberryPiPath = "IoTProject"
)

const raspberryPiConfigFile = "config.json"

// RaspberryPiDevice runs Node.js device code copied to the Pi over SSH.
type RaspberryPiDevice struct {
	deviceBase
	// Dial opens the SSH connection; nil dials TCP port 22.
	Dial func(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error)
}

func (d *RaspberryPiDevice) CheckPrerequisites(_ context.Context) (bool, error) {
	return true, nil
}

func (d *RaspberryPiDevice) Create(_ context.Context) (bool, error) {
	if err := d.createFolder(); err != nil {
		return false, err
	}
	code, err := readTemplate(path.Join("raspberrypi", d.sketch+".js"))
	if err != nil {
		return false, err
	}
	if err := writeFile(filepath.Join(d.path, "index.js"), code); err != nil {
		return false, err
	}
	pkg, err := readTemplate("raspberrypi/package.json")
	if err != nil {
		return false, err
	}
	if err := writeFile(filepath.Join(d.path, "package.json"), pkg); err != nil {
		return false, err
	}
	return true, nil
}

func (d *RaspberryPiDevice) Compile(ctx context.Context) (bool, error) {
	d.env.Notifier.Info(ctx, "Congratulations! There is no device code to compile in this project.")
	return true, nil
}

// Upload copies the device folder to the Pi.
func (d *RaspberryPiDevice) Upload(ctx context.Context) (bool, error) {
	host := d.env.Settings.Get(model.ConfigRaspberryPiHost)
	user := d.env.Settings.Get(model.ConfigRaspberryPiUser)
	remote := d.env.Settings.Get(model.ConfigRaspberryPiPath)
	if host == "" || user == "" || remote == "" {
		ok, err := d.askConnection(ctx)
		if err != nil || !ok {
			return false, err
		}
		host = d.env.Settings.Get(model.ConfigRaspberryPiHost)
		user = d.env.Settings.Get(model.ConfigRaspberryPiUser)
		remote = d.env.Settings.Get(model.ConfigRaspberryPiPath)
	}

	password, ok, err := d.env.Prompter.Input(ctx, prompt.InputOptions{
		Title:       fmt.Sprintf("Enter password for %s@%s", user, host),
		Placeholder: "Leave empty to use SSH keys",
		Password:    true,
	})
	if err != nil || !ok {
		return false, err
	}

	config, err := d.clientConfig(user, password)
	if err != nil {
		return false, err
	}
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	dial := d.Dial
	if dial == nil {
		dial = dialSSH
	}
	client, err := dial(ctx, addr, config)
	if err != nil {
		return false, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer client.Close()

	files, err := uploadPlan(d.path, remote)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if err := copyFile(client, f.local, f.remote); err != nil {
			return false, fmt.Errorf("copying %s: %w", f.local, err)
		}
		d.env.Logger.Info().Str("file", f.remote).Msg("Uploaded")
	}

	d.env.Notifier.Info(ctx, fmt.Sprintf("Device code has been uploaded to %s:%s. Run \"npm install && node index.js\" there to start it.", host, remote))
	return true, nil
}

// ConfigDeviceSettings stores the Pi connection settings and writes the
// device connection string to config.json.
func (d *RaspberryPiDevice) ConfigDeviceSettings(ctx context.Context) (bool, error) {
	ok, err := d.askConnection(ctx)
	if err != nil || !ok {
		return false, err
	}
	cs := d.deviceConnectionString(ctx)
	if cs == "" {
		return false, nil
	}
	content, err := json.MarshalIndent(map[string]string{"connectionString": cs}, "", "  ")
	if err != nil {
		return false, err
	}
	if err := writeFile(filepath.Join(d.path, raspberryPiConfigFile), content); err != nil {
		return false, err
	}
	d.env.Notifier.Info(ctx, "Device connection string has been written to "+raspberryPiConfigFile+".")
	return true, nil
}

func (d *RaspberryPiDevice) askConnection(ctx context.Context) (bool, error) {
	questions := []struct {
		key   model.ConfigKey
		title string
		value string
	}{
		{model.ConfigRaspberryPiHost, "Enter Raspberry Pi host name or IP address", DefaultRaspberryPiHost},
		{model.ConfigRaspberryPiUser, "Enter Raspberry Pi user name", DefaultRaspberryPiUser},
		{model.ConfigRaspberryPiPath, "Enter destination folder on the Raspberry Pi", DefaultRaspberryPiPath},
	}
	for _, q := range questions {
		value := d.env.Settings.Get(q.key)
		if value == "" {
			value = q.value
		}
		answer, ok, err := d.env.Prompter.Input(ctx, prompt.InputOptions{
			Title:    q.title,
			Value:    value,
			Validate: required(q.title),
		})
		if err != nil || !ok {
			return false, err
		}
		if err := d.env.Settings.Update(q.key, strings.TrimSpace(answer)); err != nil {
			return false, err
		}
	}
	return true, nil
}

// clientConfig authenticates with the password when one is given and with
// the default private keys otherwise. Host keys are checked against
// ~/.ssh/known_hosts when it exists.
func (d *RaspberryPiDevice) clientConfig(user, password string) (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:    user,
		Timeout: 15 * time.Second,
	}
	if password != "" {
		config.Auth = append(config.Auth, ssh.Password(password))
	}
	home, _ := os.UserHomeDir()
	for _, name := range []string{"id_ed25519", "id_rsa"} {
		key, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			d.env.Logger.Debug().Str("key", name).Err(err).Msg("Skipping private key")
			continue
		}
		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}
	if len(config.Auth) == 0 {
		return nil, errors.New("no SSH password or private key available")
	}

	callback, err := knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
	if err != nil {
		d.env.Logger.Warn().Msg("No known_hosts file, the Raspberry Pi host key is not verified")
		callback = ssh.InsecureIgnoreHostKey()
	}
	config.HostKeyCallback = callback
	return config, nil
}

func dialSSH(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

type uploadFile struct {
	local  string
	remote string
}

// uploadPlan lists the files under dir with their destination below
// remote. Hidden entries are skipped.
func uploadPlan(dir, remote string) ([]uploadFile, error) {
	var files []uploadFile
	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, uploadFile{local: p, remote: path.Join(remote, filepath.ToSlash(rel))})
		return nil
	})
	return files, err
}

func copyFile(client *ssh.Client, local, remote string) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()

	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()
	session.Stdin = f
	return session.Run(fmt.Sprintf("mkdir -p %s && cat > %s", shellQuote(path.Dir(remote)), shellQuote(remote)))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
