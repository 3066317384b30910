/*

Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each package keeps a single configuration record, a protobuf message saved
under the "_c:<package>" key. The record is read from the "conf" section of
the genesis file, validated, and loaded by handlers at call time.

Not being able to get a configuration value is a critical condition for the
application and there is no recovery path for the client. Use MustLoad where a
missing configuration must terminate the process.

*/
package gconf
