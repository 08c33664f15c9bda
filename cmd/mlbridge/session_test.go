package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/heap"
	"github.com/wippyai/mlbridge/natives"
)

func newTestSession(t *testing.T, mode string) (*session, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	cfg := defaultConfig()
	cfg.mode = mode
	cfg.capacity = 16
	cfg.heap = heap.Config{CollectEvery: 2}
	out := &bytes.Buffer{}
	sess, err := newSession(ctx, cfg, natives.New(out), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { sess.close(ctx) })
	return sess, out
}

func TestSessionCall(t *testing.T) {
	tests := []struct {
		fn      string
		args    string
		typ     string
		want    string
		printed string
	}{
		{fn: "inc", args: "41", typ: "int", want: "42"},
		{fn: "inc64", args: "41L", typ: "int64", want: "42L"},
		{fn: "mkpair", args: `1; "x"`, typ: "(int * string)", want: `(1, "x")`},
		{fn: "triple", args: "'a'", typ: "(char * (char * char))", want: "('a', ('a', 'a'))"},
		{fn: "strtail", args: `"hello"`, typ: "string option", want: `Some "ello"`},
		{fn: "strtail", args: `""`, typ: "string option", want: "None"},
		{fn: "bytestail", args: `"ab"`, typ: "bytes option", want: `Some "b"`},
		{fn: "somestr", args: "12", typ: "string option", want: `Some "12"`},
		{fn: "listtail", args: "[1; 2; 3]", typ: "int list option", want: "Some [2; 3]"},
		{fn: "listtail", args: `[("a", 1)]`, typ: "(string * int) list option", want: "Some []"},
		{fn: "recordfst", args: "{(7, 8)}", typ: "int", want: "7"},
		{fn: "tostring", args: `("a", 3)`, typ: "string", want: `"str: a, int: 3"`},
		{fn: "bigstrtail", args: `"abc"`, typ: "Bigstring.t option", want: `Some "bc"`},
		{fn: "atoi", args: "'A'", typ: "int", want: "65"},
		{fn: "itoa", args: "97", typ: "char", want: "'a'"},
		{fn: "printint", args: "5", typ: "string", want: `""`, printed: "5 \n"},
		{fn: "printchar", args: "'z'", typ: "string", want: `""`, printed: "z \n"},
		{fn: "printint64", args: "-3L", typ: "string", want: `""`, printed: "-3 \n"},
		{fn: "printbigstring", args: `"big"`, typ: "string", want: `""`, printed: "big\n"},
	}
	for _, mode := range []string{modeDirect, modeWasm} {
		t.Run(mode, func(t *testing.T) {
			sess, out := newTestSession(t, mode)
			for _, tc := range tests {
				out.Reset()
				got, typ, err := sess.call(context.Background(), tc.fn, tc.args)
				require.NoError(t, err, "%s %s", tc.fn, tc.args)
				assert.Equal(t, tc.want, got, "%s %s", tc.fn, tc.args)
				assert.Equal(t, tc.typ, typ.Name(), "%s %s", tc.fn, tc.args)
				assert.Equal(t, tc.printed, out.String(), "%s %s", tc.fn, tc.args)
				assert.Zero(t, sess.chain.Depth())
			}
		})
	}
}

func TestSessionPrintModule(t *testing.T) {
	for _, mode := range []string{modeDirect, modeWasm} {
		t.Run(mode, func(t *testing.T) {
			sess, out := newTestSession(t, mode)
			require.NoError(t, sess.printModule(context.Background()))
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			assert.Len(t, lines, len(sess.mod.Funcs()))
			assert.Contains(t, lines, `external inc : int -> int = "inc"`)
		})
	}
}

func TestSessionErrors(t *testing.T) {
	sess, _ := newTestSession(t, modeDirect)
	ctx := context.Background()

	_, _, err := sess.call(ctx, "nosuch", "")
	require.Error(t, err)

	_, _, err = sess.call(ctx, "inc", `"x"`)
	require.Error(t, err)

	_, _, err = sess.call(ctx, "inc", "1; 2")
	require.Error(t, err)

	// the session keeps working after rejected arguments
	got, _, err := sess.call(ctx, "inc", "1")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestSessionResetAfterViolation(t *testing.T) {
	ctx := context.Background()
	cfg := defaultConfig()
	cfg.mode = modeDirect
	cfg.capacity = 1
	out := &bytes.Buffer{}
	sess, err := newSession(ctx, cfg, natives.New(out), zap.NewNop())
	require.NoError(t, err)
	defer sess.close(ctx)

	// two arguments need two slots of a one-slot table
	_, _, err = sess.call(ctx, "mkpair", "1; 2")
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindCapacity, e.Kind)

	assert.Zero(t, sess.chain.Depth())
	got, _, err := sess.call(ctx, "inc", "1")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestSessionReleasesBigstrings(t *testing.T) {
	big := strings.Repeat("b", 1000)
	for _, mode := range []string{modeDirect, modeWasm} {
		t.Run(mode, func(t *testing.T) {
			sess, out := newTestSession(t, mode)
			ctx := context.Background()
			mark := sess.arena.ExternalMark()
			// well past what the default external area holds at once
			for i := 0; i < 12; i++ {
				out.Reset()
				got, _, err := sess.call(ctx, "printbigstring", `"`+big+`"`)
				require.NoError(t, err, "call %d", i)
				assert.Equal(t, `""`, got)
				assert.Equal(t, big+"\n", out.String())
				assert.Equal(t, mark, sess.arena.ExternalMark(), "call %d", i)
			}

			got, _, err := sess.call(ctx, "bigstrtail", `"`+big+`"`)
			require.NoError(t, err)
			assert.Equal(t, `Some "`+big[1:]+`"`, got)
		})
	}
}
