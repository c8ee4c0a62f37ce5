package libgl

import (
	"cubemap-prefilter/libutil"
	"fmt"
	"os"
	"runtime"
	"testing"
)

var onMain chan func()
var onMainDone chan struct{}

var glAvailable bool

func TestMain(m *testing.M) {
	runtime.LockOSThread()

	_, terminate, err := libutil.NewHeadlessContext(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "GL tests will be skipped: %v\n", err)
		os.Exit(m.Run())
	}
	glAvailable = true
	Init()
	EnableDebugOutput()

	onMain = make(chan func())
	onMainDone = make(chan struct{})

	var code int
	go func() {
		code = m.Run()
		close(onMain)
	}()

	for fn := range onMain {
		fn()
		onMainDone <- struct{}{}
	}
	terminate()
	os.Exit(code)
}

func runOnMain(t *testing.T, fn func()) {
	t.Helper()
	if !glAvailable {
		t.Skip("no OpenGL 4.5 context available")
	}
	onMain <- fn
	<-onMainDone
}
