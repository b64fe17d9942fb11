// Package logger wraps zap for the setup driver:
//   - a global sugared logger writing to stderr with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and switching,
//   - leveled helpers (Info, InfoKV, ErrorKV, ...).
//
// Every stage of the driver receives a context and logs through it, so a
// stage name or a set of fields attached once follows the whole run.
package logger
