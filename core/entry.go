package core

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Entry is the immutable message envelope delivered to every handler.
// It is created after the level gate passes, consumed once by the bus,
// and returned to the pool when delivery completes.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Origin  Origin
}

// Origin identifies where a log event came from.
type Origin struct {
	Module   string
	Function string
	Line     int
	CallerID string
	Defined  bool
}

// entryPool keeps envelopes off the heap on the dispatch path
var entryPool = sync.Pool{
	New: func() interface{} {
		return &Entry{}
	},
}

// GetEntry retrieves an Entry from the pool
func GetEntry() *Entry {
	e := entryPool.Get().(*Entry)
	e.Time = time.Time{}
	e.Message = ""
	e.Origin = Origin{}
	return e
}

// PutEntry returns an Entry to the pool
func PutEntry(e *Entry) {
	if e == nil {
		return
	}
	e.Message = ""
	e.Origin = Origin{}
	entryPool.Put(e)
}

// CallerOrigin derives an Origin from the call stack. skip counts frames
// above the caller of CallerOrigin, as in runtime.Caller.
func CallerOrigin(skip int, callerID string) Origin {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Origin{CallerID: callerID}
	}

	var funcName string
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
		if i := strings.LastIndex(funcName, "."); i >= 0 {
			funcName = funcName[i+1:]
		}
	}

	module := filepath.Base(file)
	module = strings.TrimSuffix(module, filepath.Ext(module))

	return Origin{
		Module:   module,
		Function: funcName,
		Line:     line,
		CallerID: callerID,
		Defined:  true,
	}
}
