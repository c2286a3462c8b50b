// Package redisstore implements the store interfaces on top of Redis.
//
// Layout, relative to a configurable key prefix:
//
//	{prefix}:seq:course             INCR counter for course IDs
//	{prefix}:seq:student            INCR counter for student IDs
//	{prefix}:courses                sorted set of course IDs (score = ID)
//	{prefix}:students               sorted set of student IDs (score = ID)
//	{prefix}:course:{id}            hash {name}
//	{prefix}:course:{id}:students   set of enrolled student IDs
//	{prefix}:student:{id}           hash {name, birth_date}
//	{prefix}:student:{id}:courses   set of course IDs the student is enrolled in
//
// Multi-key writes run in MULTI/EXEC under WATCH and are retried when a
// watched key changes concurrently.
package redisstore
