package renderer

import "github.com/go-gl/gl/v4.1-core/gl"

// glTimerQueries implements framestats.QueryAPI over GL_TIME_ELAPSED
// queries, core since OpenGL 3.3.
type glTimerQueries struct{}

func (glTimerQueries) Create() (uint32, bool) {
	var q uint32
	gl.GenQueries(1, &q)
	return q, q != 0
}

func (glTimerQueries) Begin(q uint32) { gl.BeginQuery(gl.TIME_ELAPSED, q) }

func (glTimerQueries) End() { gl.EndQuery(gl.TIME_ELAPSED) }

func (glTimerQueries) ResultAvailable(q uint32) bool {
	var available int32
	gl.GetQueryObjectiv(q, gl.QUERY_RESULT_AVAILABLE, &available)
	return available != 0
}

// Disjoint is always false: desktop GL has no disjoint flag, a context loss
// surfaces as a lost context instead.
func (glTimerQueries) Disjoint() bool { return false }

func (glTimerQueries) Result(q uint32) uint64 {
	var ns uint64
	gl.GetQueryObjectui64v(q, gl.QUERY_RESULT, &ns)
	return ns
}

func (glTimerQueries) Delete(q uint32) { gl.DeleteQueries(1, &q) }
