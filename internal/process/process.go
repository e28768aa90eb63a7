package process

import (
	"github.com/tapedeck/tapedeck/internal/cassette"
)

// Processor is one sanitizing transform in the pipeline.
//
// ProcessRequest may return nil to signal that the whole interaction
// must be excluded from the cassette. ProcessResponse never drops; it
// returns the (possibly rewritten) response.
type Processor interface {
	ProcessRequest(req *cassette.Request) *cassette.Request
	ProcessResponse(resp *cassette.Response) *cassette.Response
}

// Pipeline applies an ordered list of processors.
type Pipeline struct {
	processors []Processor
}

// NewPipeline builds a pipeline running processors in the given order.
func NewPipeline(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Append adds a processor at the end of the pipeline.
func (p *Pipeline) Append(proc Processor) {
	p.processors = append(p.processors, proc)
}

// ProcessRequest runs the request through every processor in
// registration order. A nil return from any processor short-circuits
// the rest and signals "exclude from cassette".
func (p *Pipeline) ProcessRequest(req *cassette.Request) *cassette.Request {
	for _, proc := range p.processors {
		req = proc.ProcessRequest(req)
		if req == nil {
			return nil
		}
	}
	return req
}

// ProcessResponse runs the response through every processor in the same
// registration order as ProcessRequest (not reversed).
func (p *Pipeline) ProcessResponse(resp *cassette.Response) *cassette.Response {
	for _, proc := range p.processors {
		resp = proc.ProcessResponse(resp)
	}
	return resp
}
