// Package sklog is the logging facade used throughout the serving core. It
// dispatches to whatever sklogimpl.Logger backend the process installed
// (go/sklog/stdlogging by default); callers never depend on the backend
// directly.
package sklog

import (
	"os"

	"github.com/openlawlibrary/stelae-sub000/go/sklog/sklogimpl"
	"github.com/openlawlibrary/stelae-sub000/go/sklog/stdlogging"
)

func init() {
	sklogimpl.SetLogger(stdlogging.New(os.Stderr))
}

func Debugf(format string, args ...interface{})   { sklogimpl.Log(1, sklogimpl.Debug, format, args...) }
func Infof(format string, args ...interface{})    { sklogimpl.Log(1, sklogimpl.Info, format, args...) }
func Warningf(format string, args ...interface{}) { sklogimpl.Log(1, sklogimpl.Warning, format, args...) }
func Errorf(format string, args ...interface{})   { sklogimpl.Log(1, sklogimpl.Error, format, args...) }
func Fatalf(format string, args ...interface{})   { sklogimpl.Log(1, sklogimpl.Fatal, format, args...) }
