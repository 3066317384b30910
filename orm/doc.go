/*
Package orm provides typed buckets over a KVStore.

A ModelBucket stores models of a single type under a bucket prefix,

	<bucket name>:<primary key>

and maintains optional secondary indexes. A model is a protobuf message,
serialized with gogo/protobuf, and is validated before every write.
*/
package orm
