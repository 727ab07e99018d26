package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

type fakePlugin struct {
	name          string
	preOpcodeHit  int
	postOpcodeHit int
	settings      map[string]string
	settingsErr   error
	rawLines      []string
	rawHandled    bool
	rawErr        error
	commentArgs   string
}

func (f *fakePlugin) Name() string { return f.name }
func (f *fakePlugin) PreOpcode(ctx *engine.Context, pos int, name string)  { f.preOpcodeHit++ }
func (f *fakePlugin) PostOpcode(ctx *engine.Context, pos int, name string) { f.postOpcodeHit++ }
func (f *fakePlugin) PluginSettings(settings map[string]string) error {
	f.settings = settings
	return f.settingsErr
}
func (f *fakePlugin) ParseInputFile(path string) ([]string, bool, error) {
	return f.rawLines, f.rawHandled, f.rawErr
}
func (f *fakePlugin) PluginComment(ctx *engine.Context, pos int, args string) {
	f.commentArgs = args
}

func TestRegistryFansOutOpcodeHooksInOrder(t *testing.T) {
	a := &fakePlugin{name: "a"}
	b := &fakePlugin{name: "b"}
	reg := NewRegistry()
	reg.Register(a)
	reg.Register(b)

	ctx := engine.NewRootContext()
	reg.PreOpcode(ctx, 0, "ADD")
	reg.PostOpcode(ctx, 0, "ADD")

	require.Equal(t, 1, a.preOpcodeHit)
	require.Equal(t, 1, a.postOpcodeHit)
	require.Equal(t, 1, b.preOpcodeHit)
	require.Equal(t, 1, b.postOpcodeHit)
}

func TestRegistryCommentDispatchesOnlyToNamedPlugin(t *testing.T) {
	a := &fakePlugin{name: "checksigtrack"}
	b := &fakePlugin{name: "modelusage"}
	reg := NewRegistry()
	reg.Register(a)
	reg.Register(b)

	ctx := engine.NewRootContext()
	reg.Comment(ctx, 0, "modelusage", "verbose")

	require.Empty(t, a.commentArgs)
	require.Equal(t, "verbose", b.commentArgs)
}

func TestRegistryApplySettingsGroupsByPluginName(t *testing.T) {
	a := &fakePlugin{name: "rawinput"}
	reg := NewRegistry()
	reg.Register(a)

	err := reg.ApplySettings(map[string]map[string]string{
		"rawinput": {"format": "binary"},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"format": "binary"}, a.settings)
}

func TestRegistryParseInputFileReturnsFirstHandler(t *testing.T) {
	unhandled := &fakePlugin{name: "a", rawHandled: false}
	handled := &fakePlugin{name: "b", rawHandled: true, rawLines: []string{"OP_DUP"}}
	reg := NewRegistry()
	reg.Register(unhandled)
	reg.Register(handled)

	lines, ok, err := reg.ParseInputFile("-")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"OP_DUP"}, lines)
}

func TestRegistryParseInputFileNoHandlerReturnsUnhandled(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakePlugin{name: "a", rawHandled: false})

	_, ok, err := reg.ParseInputFile("-")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegistryPushDataFansOutOnlyToPushDataHook(t *testing.T) {
	type pushOnly struct {
		fakePlugin
		pushed *value.Value
	}
	p := &pushOnly{fakePlugin: fakePlugin{name: "pusher"}}
	reg := NewRegistry()
	reg.Register(p)

	v := value.NewLiteral([]byte{1})
	ctx := engine.NewRootContext()
	reg.PushData(ctx, 0, v)
	// pushOnly embeds fakePlugin but does not itself implement PushData, so
	// the type assertion in Registry.PushData fails silently; this
	// documents that embedding alone does not satisfy PushDataHook.
	require.Nil(t, p.pushed)
}
