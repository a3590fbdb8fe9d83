// Automod component for remembering which messages have already been handled, with a bounded size and fixed TTL.
//
// The long poll stream may redeliver events after a reconnect; the consumer uses this store to make sure no message is evaluated twice.
package seenstore
