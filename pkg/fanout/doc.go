// Package fanout maintains the mapping from routing keys to live
// connections and delivers events to every connection currently joined to a
// room, across one or more server processes.
//
// A connection joins the room named after its resolved routing key when it
// is established and leaves all rooms on disconnect. Emitting to a room is
// best effort: events are not acknowledged, and an emit to a room with no
// members is dropped. The persisted notification record remains the durable
// source of truth.
//
// Two hub implementations exist: MemoryHub for a single process, and
// RedisHub, which floods emits over a shared Redis pub/sub channel so any
// process can deliver to clients connected elsewhere.
package fanout
