package install

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/blackwell-systems/pacpilot/internal/runner"
)

func TestScript(t *testing.T) {
	script := Script([][]string{
		{"sudo", "pacman", "-S", "linux", "firefox"},
		{"sudo", "-u", "alice", "yay", "-S", "it's-odd"},
	}, "/tmp/x/pacpilot_install_complete.marker", true)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\necho 'Installing packages...'\n"))
	assert.Contains(t, script, "sudo pacman -S linux firefox && sudo -u alice yay -S 'it'\\''s-odd'\n")
	assert.Contains(t, script, "installation_result=$?\n")
	assert.Contains(t, script, "echo $installation_result > '/tmp/x/pacpilot_install_complete.marker.tmp' && mv -f '/tmp/x/pacpilot_install_complete.marker.tmp' '/tmp/x/pacpilot_install_complete.marker'\n")
	assert.True(t, strings.HasSuffix(script, "read -p 'Press Enter to continue...'\n"))

	noPause := Script([][]string{{"true"}}, "/tmp/m", false)
	assert.NotContains(t, noPause, "read -p")
}

func TestPollMarker(t *testing.T) {
	cases := []struct {
		name    string
		content string
		success bool
	}{
		{"zero", "0\n", true},
		{"failure", "1\n", false},
		{"signal", "130", false},
		{"garbage counts as success", "not a number", true},
		{"empty counts as success", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			marker := PathsIn(t.TempDir()).Marker
			require.NoError(t, os.WriteFile(marker, []byte(tc.content), 0o644))

			success, done := PollMarker(marker)
			assert.True(t, done)
			assert.Equal(t, tc.success, success)

			_, err := os.Stat(marker)
			assert.True(t, os.IsNotExist(err), "marker should be deleted")

			_, done = PollMarker(marker)
			assert.False(t, done, "outcome must be reported once")
		})
	}
}

func TestPollMarkerAbsent(t *testing.T) {
	success, done := PollMarker(PathsIn(t.TempDir()).Marker)
	assert.False(t, done)
	assert.False(t, success)
}

func TestLaunchWritesScriptAndStartsTerminal(t *testing.T) {
	paths := PathsIn(t.TempDir())
	require.NoError(t, os.WriteFile(paths.Marker, []byte("1"), 0o644))

	ctrl := gomock.NewController(t)
	term := NewMockTerminal(ctrl)
	term.EXPECT().Run("bash '" + paths.Script + "'").DoAndReturn(func(string) (string, error) {
		_, err := os.Stat(paths.Marker)
		assert.True(t, os.IsNotExist(err), "stale marker must be removed before launch")
		return "kitty", nil
	})

	h, err := NewLauncher(term, paths).Launch([]string{"linux", "firefox"})
	require.NoError(t, err)
	assert.Equal(t, "kitty", h.Terminal)
	assert.Equal(t, paths.Marker, h.Marker)

	info, err := os.Stat(paths.Script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	data, err := os.ReadFile(paths.Script)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sudo pacman -S linux firefox\n")
}

func TestLaunchResetsExistingScriptMode(t *testing.T) {
	paths := PathsIn(t.TempDir())
	require.NoError(t, os.WriteFile(paths.Script, []byte("old"), 0o600))

	ctrl := gomock.NewController(t)
	term := NewMockTerminal(ctrl)
	term.EXPECT().Run(gomock.Any()).Return("kitty", nil)

	_, err := NewLauncher(term, paths).Launch([]string{"linux"})
	require.NoError(t, err)

	info, err := os.Stat(paths.Script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestLaunchRejectsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	term := NewMockTerminal(ctrl)

	l := NewLauncher(term, PathsIn(t.TempDir()))
	_, err := l.Launch(nil)
	assert.Error(t, err)

	_, err = l.LaunchCommands(nil, []string{})
	assert.ErrorIs(t, err, ErrNoCommands)
}

func TestLaunchTerminalFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	term := NewMockTerminal(ctrl)
	term.EXPECT().Run(gomock.Any()).Return("", ErrNoTerminal)

	_, err := NewLauncher(term, PathsIn(t.TempDir())).Launch([]string{"linux"})
	assert.ErrorIs(t, err, ErrNoTerminal)
}

func TestWaitSeesMarker(t *testing.T) {
	paths := PathsIn(t.TempDir())

	ctrl := gomock.NewController(t)
	term := NewMockTerminal(ctrl)
	term.EXPECT().Run(gomock.Any()).DoAndReturn(func(string) (string, error) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = os.WriteFile(paths.Marker+".tmp", []byte("0\n"), 0o644)
			_ = os.Rename(paths.Marker+".tmp", paths.Marker)
		}()
		return "xterm", nil
	})

	l := NewLauncher(term, paths)
	h, err := l.LaunchCommands([]string{"sudo", "pacman", "-S", "linux"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	success, err := l.Wait(ctx, h, time.Second)
	require.NoError(t, err)
	assert.True(t, success)
}

func TestWaitHonoursContext(t *testing.T) {
	l := NewLauncher(nil, PathsIn(t.TempDir()))
	h := &Handle{Marker: PathsIn(t.TempDir()).Marker}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := l.Wait(ctx, h, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInlineRunRecordsExitCode(t *testing.T) {
	for _, tc := range []struct {
		cmd     []string
		success bool
	}{
		{[]string{"true"}, true},
		{[]string{"false"}, false},
	} {
		paths := PathsIn(t.TempDir())
		var out strings.Builder
		l := NewLauncher(InlineTerminal{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &out}, paths)
		l.Pause = false

		h, err := l.LaunchCommands(tc.cmd)
		require.NoError(t, err)
		assert.Equal(t, "inline", h.Terminal)

		success, done := l.Poll(h)
		assert.True(t, done, "inline runs finish before Launch returns")
		assert.Equal(t, tc.success, success)
		assert.Contains(t, out.String(), "Installing packages...")
	}
}

func fakeSpawn(outcomes map[string]error, started *[]string) spawnFunc {
	return func(name string, args []string) (<-chan error, error) {
		*started = append(*started, name)
		err, exits := outcomes[name]
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		ch := make(chan error, 1)
		if exits {
			ch <- err
		}
		return ch, nil
	}
}

func TestEmulatorsPicksFirstSurvivor(t *testing.T) {
	r := runner.NewFake()
	r.Missing = &runner.Result{ExitCode: 1}
	r.On(runner.Result{}, "which", "konsole").
		On(runner.Result{}, "which", "alacritty").
		On(runner.Result{}, "which", "xterm")

	var started []string
	e := NewEmulators(r, "")
	e.settle = 10 * time.Millisecond
	e.spawn = fakeSpawn(map[string]error{"konsole": errors.New("exit status 1")}, &started)

	name, err := e.Run("bash '/tmp/pacpilot_install.sh'")
	require.NoError(t, err)
	assert.Equal(t, "alacritty", name)
	assert.Equal(t, []string{"konsole", "alacritty"}, started)
}

func TestEmulatorsCleanExitCountsAsStarted(t *testing.T) {
	r := runner.NewFake()
	r.Missing = &runner.Result{ExitCode: 1}
	r.On(runner.Result{}, "which", "gnome-terminal")

	var started []string
	e := NewEmulators(r, "")
	e.spawn = fakeSpawn(map[string]error{"gnome-terminal": nil}, &started)

	name, err := e.Run("true")
	require.NoError(t, err)
	assert.Equal(t, "gnome-terminal", name)
}

func TestEmulatorsNoneAvailable(t *testing.T) {
	r := runner.NewFake()
	r.Missing = &runner.Result{ExitCode: 1}

	e := NewEmulators(r, "")
	_, err := e.Run("true")
	assert.ErrorIs(t, err, ErrNoTerminal)
}

func TestEmulatorsPreferred(t *testing.T) {
	known := orderEmulators("xterm")
	require.Len(t, known, len(KnownEmulators))
	assert.Equal(t, "xterm", known[0].Name)
	assert.Equal(t, "gnome-terminal", known[1].Name)

	custom := orderEmulators("foot")
	require.Len(t, custom, len(KnownEmulators)+1)
	assert.Equal(t, "foot", custom[0].Name)
	assert.Equal(t, []string{"-e", "bash", "-c", "true"}, custom[0].Args("true"))
}
