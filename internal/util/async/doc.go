// Package async provides utilities for parallel task execution with
// bounded concurrency.
//
// [RunParallel] executes tasks concurrently and returns the first error;
// [RunAll] executes every task regardless of sibling failures and returns
// the per-task errors. Both are backed by errgroup and honour a limit on
// the number of tasks in flight.
package async
