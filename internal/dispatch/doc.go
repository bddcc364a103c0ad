// Package dispatch fans decoded link messages out to independently
// scheduled, independently backpressured lanes, one per traffic category.
//
// The link reader's single thread calls Dispatcher.Dispatch for every
// decoded message. Dispatch never blocks and never reports failure: each
// lane absorbs overload by evicting its oldest pending message, and handler
// faults are contained inside the lane's worker. A flooded video lane
// therefore cannot stall the physical link read path or delay touch input.
package dispatch
