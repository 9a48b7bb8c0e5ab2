package aur

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
	"github.com/blackwell-systems/pacpilot/internal/config"
	"github.com/blackwell-systems/pacpilot/internal/pacman"
	"github.com/blackwell-systems/pacpilot/internal/runner"
	"github.com/blackwell-systems/pacpilot/internal/updates"
)

type stubUsers struct {
	root bool
	user string
}

func (s stubUsers) IsRoot() bool { return s.root }

func (s stubUsers) OriginalUser() (string, bool) { return s.user, s.user != "" }

func installed(names ...string) *runner.Fake {
	f := runner.NewFake()
	f.Missing = &runner.Result{ExitCode: 1}
	for _, n := range names {
		f.On(runner.Result{Stdout: "/usr/bin/" + n + "\n"}, "which", n)
	}
	return f
}

func TestHelperArguments(t *testing.T) {
	for _, h := range []Helper{Yay, Paru, Trizen, Pikaur} {
		assert.Equal(t, []string{"-Qua"}, h.UpdateCheckArgs(), h.String())
		assert.Equal(t, []string{"-S"}, h.InstallArgs(), h.String())
		assert.True(t, h.SupportsNoConfirm(), h.String())
	}
	assert.Equal(t, []string{"list", "-u", "-a"}, Pamac.UpdateCheckArgs())
	assert.Equal(t, []string{"install"}, Pamac.InstallArgs())
	assert.False(t, Pamac.SupportsNoConfirm())

	h, ok := FromCommand("paru")
	assert.True(t, ok)
	assert.Equal(t, Paru, h)
	_, ok = FromCommand("aura")
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	enabled := config.Defaults()
	enabled.EnableAUR = true

	t.Run("disabled", func(t *testing.T) {
		h, ok := Select(config.Defaults(), installed("yay"))
		assert.False(t, ok)
		assert.Equal(t, None, h)
	})

	t.Run("priority order", func(t *testing.T) {
		h, ok := Select(enabled, installed("pikaur", "paru"))
		assert.True(t, ok)
		assert.Equal(t, Paru, h)
	})

	t.Run("preferred installed", func(t *testing.T) {
		s := enabled
		s.PreferredHelper = "pamac"
		h, ok := Select(s, installed("yay", "pamac"))
		assert.True(t, ok)
		assert.Equal(t, Pamac, h)
	})

	t.Run("preferred missing falls back", func(t *testing.T) {
		s := enabled
		s.PreferredHelper = "trizen"
		h, ok := Select(s, installed("yay"))
		assert.True(t, ok)
		assert.Equal(t, Yay, h)
	})

	t.Run("unknown preference falls back", func(t *testing.T) {
		s := enabled
		s.PreferredHelper = "aura"
		h, ok := Select(s, installed("pikaur"))
		assert.True(t, ok)
		assert.Equal(t, Pikaur, h)
	})

	t.Run("none installed", func(t *testing.T) {
		_, ok := Select(enabled, installed())
		assert.False(t, ok)
	})
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, []Helper{Yay, Pamac}, Available(installed("pamac", "yay")))
	assert.Empty(t, Available(installed()))
}

func TestCollectUpdatesStandardFormat(t *testing.T) {
	f := runner.NewFake().On(runner.Result{Stdout: ":: header line\nbar 2.0-1 -> 2.1-1\nbaz-git r10.abc-1 -> r12.def-1\n\n"}, "yay", "-Qua")

	got, err := NewAdapter(f, Yay, nil).CollectUpdates()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, updates.Record{
		Repository:     "AUR",
		Name:           "bar",
		Description:    "AUR package: bar",
		CurrentVersion: "2.0-1",
		NewVersion:     "2.1-1",
		Selected:       true,
	}, got[0])
	assert.Equal(t, "baz-git", got[1].Name)
	assert.Equal(t, "r12.def-1", got[1].NewVersion)
}

func TestCollectUpdatesPamacFormat(t *testing.T) {
	f := runner.NewFake().On(runner.Result{Stdout: "spotify  1.2.0-1  1.2.1-1  AUR\nshort 1.0\n"}, "pamac", "list", "-u", "-a")

	got, err := NewAdapter(f, Pamac, nil).CollectUpdates()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "spotify", got[0].Name)
	assert.Equal(t, "1.2.0-1", got[0].CurrentVersion)
	assert.Equal(t, "1.2.1-1", got[0].NewVersion)
	assert.True(t, got[0].IsAUR())
}

func TestCollectUpdatesWithoutHelper(t *testing.T) {
	f := runner.NewFake()
	got, err := NewAdapter(f, None, nil).CollectUpdates()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, f.Calls())
}

func TestCollectUpdatesNothingToDo(t *testing.T) {
	cases := map[string]runner.Result{
		"silent":      {ExitCode: 1},
		"nothing":     {ExitCode: 1, Stdout: "something", Stderr: " there is nothing to do"},
		"no packages": {ExitCode: 1, Stdout: "x", Stderr: "error: no packages found"},
	}
	for name, res := range cases {
		t.Run(name, func(t *testing.T) {
			f := runner.NewFake().On(res, "paru", "-Qua")
			got, err := NewAdapter(f, Paru, nil).CollectUpdates()
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestCollectUpdatesEmptyStdoutIsNothingToDo(t *testing.T) {
	f := runner.NewFake().On(runner.Result{ExitCode: 1, Stderr: "error: could not connect"}, "yay", "-Qua")
	got, err := NewAdapter(f, Yay, nil).CollectUpdates()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollectUpdatesFailureWithOutput(t *testing.T) {
	f := runner.NewFake().On(runner.Result{ExitCode: 1, Stdout: ":: Searching AUR for updates...\n", Stderr: "error: could not connect"}, "yay", "-Qua")
	_, err := NewAdapter(f, Yay, nil).CollectUpdates()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect")
}

func TestCollectUpdatesFailure(t *testing.T) {
	f := runner.NewFake().On(runner.Result{ExitCode: 2, Stdout: "partial", Stderr: "network unreachable"}, "yay", "-Qua")
	_, err := NewAdapter(f, Yay, nil).CollectUpdates()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindCommandFailed))
	assert.Contains(t, err.Error(), "network unreachable")
}

func TestInstallCommand(t *testing.T) {
	a := NewAdapter(runner.NewFake(), Yay, stubUsers{})
	argv, err := a.InstallCommand([]string{"bar", "baz"})
	require.NoError(t, err)
	assert.Equal(t, []string{"yay", "-S", "bar", "baz"}, argv)

	a.NoConfirm = true
	argv, err = a.InstallCommand([]string{"bar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"yay", "-S", "--noconfirm", "bar"}, argv)
}

func TestInstallCommandPamacIgnoresNoConfirm(t *testing.T) {
	a := NewAdapter(runner.NewFake(), Pamac, stubUsers{})
	a.NoConfirm = true
	argv, err := a.InstallCommand([]string{"spotify"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pamac", "install", "spotify"}, argv)
}

func TestInstallCommandDeescalatesRoot(t *testing.T) {
	a := NewAdapter(runner.NewFake(), Paru, stubUsers{root: true, user: "alice"})
	argv, err := a.InstallCommand([]string{"bar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sudo", "-u", "alice", "paru", "-S", "bar"}, argv)

	a = NewAdapter(runner.NewFake(), Paru, stubUsers{root: true})
	argv, err = a.InstallCommand([]string{"bar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"paru", "-S", "bar"}, argv)
}

func TestInstallCommandErrors(t *testing.T) {
	_, err := NewAdapter(runner.NewFake(), None, nil).InstallCommand([]string{"bar"})
	assert.ErrorIs(t, err, ErrNoHelper)

	_, err = NewAdapter(runner.NewFake(), Yay, nil).InstallCommand(nil)
	assert.ErrorIs(t, err, ErrNoPackages)
}

func TestCollectMergesOfficialAndAUR(t *testing.T) {
	f := runner.NewFake()
	f.On(runner.Result{}, "sudo", "pacman", "-Sy")
	f.On(runner.Result{Stdout: "foo 1.0-1 -> 1.1-1\n"}, "pacman", "-Qu")
	f.On(runner.Result{Stdout: "Repository      : extra\nName            : foo\nDescription     : Foo tool\nInstalled Size  : 2.00 MiB\n\n"}, "pacman", "-Si", "foo")
	f.On(runner.Result{Stdout: "Name            : foo\nInstalled Size  : 1.00 MiB\n\n"}, "pacman", "-Qi", "foo")
	f.On(runner.Result{Stdout: "bar 2.0-1 -> 2.1-1\n"}, "yay", "-Qua")

	res, err := updates.Collect(pacman.NewCollector(f), NewAdapter(f, Yay, nil))
	require.NoError(t, err)
	require.NoError(t, res.AURErr)

	merged := res.Merged()
	require.Len(t, merged, 2)
	assert.Equal(t, "foo", merged[0].Name)
	assert.Equal(t, "extra", merged[0].Repository)
	assert.Equal(t, int64(1048576), merged[0].SizeDelta)
	assert.Equal(t, "bar", merged[1].Name)
	assert.Equal(t, "AUR", merged[1].Repository)
	assert.Equal(t, "AUR package: bar", merged[1].Description)
	assert.Zero(t, merged[1].SizeDelta)
}
