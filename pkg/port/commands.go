// Circle speaks a subset of the Redis list commands. Every list command maps onto one list operation:
//
//	RPUSH     -> Append        LPUSH  -> Unshift        LPOP -> Shift      RPOP -> DeleteAt(-1)
//	LINDEX    -> At            LLEN   -> Len            LRANGE -> forward traversal
//	LINSERTAT -> Insert        LDELAT -> DeleteAt       DEL  -> Clear
//
// LINSERTAT and LDELAT aren't part of Redis; they expose index-based insertion and removal directly. Like the list
// itself, LINSERTAT fails on an index holding no element, while LINDEX and LDELAT reply nil.

package port

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/nobletooth/circle/pkg/scan"
	"github.com/nobletooth/circle/pkg/storage"
	"github.com/nobletooth/circle/pkg/utils"
)

var errNotInteger = errors.New("value is not an integer or out of range")

// knownCommands bounds the label values of the commands metric.
var knownCommands = []string{
	"PING", "QUIT", "RPUSH", "LPUSH", "LPOP", "RPOP", "LINDEX", "LLEN", "LRANGE", "LINSERTAT", "LDELAT",
	"DEL", "EXISTS", "KEYS",
}

// metricCommandLabel returns the command name if known, "unknown" otherwise.
func metricCommandLabel(command string) string {
	if slices.Contains(knownCommands, command) {
		return command
	}
	return "unknown"
}

func wrongArity(command string) redisOutput {
	return writeRedisError(fmt.Errorf("wrong number of arguments for '%s' command", command))
}

// parseIndex parses a (possibly negative) list index argument.
func parseIndex(arg []byte) (int, error) {
	idx, err := strconv.Atoi(string(arg))
	if err != nil {
		return 0, errNotInteger
	}
	return idx, nil
}

type redisHandler struct {
	keyspace *storage.Keyspace
}

// newRedisHandler creates a new redisHandler.
func newRedisHandler(keyspace *storage.Keyspace) (*redisHandler, error) {
	if keyspace == nil {
		return nil, errors.New("expected a non-nil keyspace")
	}
	return &redisHandler{keyspace: keyspace}, nil
}

func (rh *redisHandler) handle(cmd redisCommand) redisOutput {
	switch cmd.command {
	case "PING":
		if len(cmd.args) == 1 {
			return writeRedisBulk(cmd.args[0])
		}
		return writeRedisString("PONG")
	case "QUIT":
		return closeRedisConnection(RedisOk)
	case "RPUSH", "LPUSH":
		if len(cmd.args) < 2 {
			return wrongArity(cmd.command)
		}
		return rh.push(string(cmd.args[0]), cmd.args[1:], cmd.command == "LPUSH")
	case "LPOP", "RPOP":
		if len(cmd.args) != 1 {
			return wrongArity(cmd.command)
		}
		pos := 0
		if cmd.command == "RPOP" {
			pos = -1
		}
		return rh.deleteAt(string(cmd.args[0]), pos)
	case "LDELAT":
		if len(cmd.args) != 2 {
			return wrongArity(cmd.command)
		}
		pos, err := parseIndex(cmd.args[1])
		if err != nil {
			return writeRedisError(err)
		}
		return rh.deleteAt(string(cmd.args[0]), pos)
	case "LINDEX":
		if len(cmd.args) != 2 {
			return wrongArity(cmd.command)
		}
		nth, err := parseIndex(cmd.args[1])
		if err != nil {
			return writeRedisError(err)
		}
		var (
			item  []byte
			found bool
		)
		rh.keyspace.View(string(cmd.args[0]), func(l *storage.Value) { item, found = l.At(nth) })
		if !found {
			return writeRedisNil()
		}
		return writeRedisBulk(item)
	case "LLEN":
		if len(cmd.args) != 1 {
			return wrongArity(cmd.command)
		}
		length, err := rh.keyspace.Len(string(cmd.args[0]))
		if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			return writeRedisError(err)
		}
		return writeRedisInt(length) // Missing keys are empty lists.
	case "LRANGE":
		if len(cmd.args) != 3 {
			return wrongArity(cmd.command)
		}
		start, startErr := parseIndex(cmd.args[1])
		stop, stopErr := parseIndex(cmd.args[2])
		if err := errors.Join(startErr, stopErr); err != nil {
			return writeRedisError(errNotInteger)
		}
		return rh.lrange(string(cmd.args[0]), start, stop)
	case "LINSERTAT":
		if len(cmd.args) != 3 {
			return wrongArity(cmd.command)
		}
		nth, err := parseIndex(cmd.args[1])
		if err != nil {
			return writeRedisError(err)
		}
		var length int
		rh.keyspace.Update(string(cmd.args[0]), true /*create*/, func(l *storage.Value) {
			err = l.Insert(nth, cmd.args[2])
			length = l.Len()
		})
		if err != nil {
			return writeRedisError(err)
		}
		return writeRedisInt(length)
	case "DEL":
		if len(cmd.args) < 1 {
			return wrongArity(cmd.command)
		}
		return writeRedisInt(rh.keyspace.Delete(stringArgs(cmd.args)...))
	case "EXISTS":
		if len(cmd.args) < 1 {
			return wrongArity(cmd.command)
		}
		existing := 0
		for _, key := range stringArgs(cmd.args) {
			if rh.keyspace.Exists(key) {
				existing++
			}
		}
		return writeRedisInt(existing)
	case "KEYS":
		if len(cmd.args) != 1 {
			return wrongArity(cmd.command)
		}
		matches, err := scan.MatchGlob(string(cmd.args[0]), rh.keyspace.Names())
		if err != nil {
			return writeRedisError(err)
		}
		keys := make([][]byte, 0)
		for pair := range matches {
			keys = append(keys, []byte(pair.Key))
		}
		return writeRedisArray(keys)
	default:
		if slices.Contains(knownCommands, cmd.command) {
			utils.RaiseInvariant("redis", "unhandled_known_command",
				"A known command has no handler.", "command", cmd.command)
		}
		return writeRedisError(fmt.Errorf("unknown command '%s'", cmd.command))
	}
}

// push appends (or prepends, if `front` is set) `values` one by one and replies with the new length.
func (rh *redisHandler) push(key string, values [][]byte, front bool) redisOutput {
	var length int
	rh.keyspace.Update(key, true /*create*/, func(l *storage.Value) {
		for _, value := range values {
			if front {
				l.Unshift(value)
			} else {
				l.Append(value)
			}
		}
		length = l.Len()
	})
	return writeRedisInt(length)
}

// deleteAt removes the element at `pos` and replies with it, or with nil if there was none.
func (rh *redisHandler) deleteAt(key string, pos int) redisOutput {
	var (
		item  []byte
		found bool
	)
	rh.keyspace.Update(key, false /*create*/, func(l *storage.Value) { item, found = l.DeleteAt(pos) })
	if !found {
		return writeRedisNil()
	}
	return writeRedisBulk(item)
}

// lrange replies with the elements between `start` and `stop`, both inclusive and possibly negative.
// Out of range bounds are clamped; an empty range replies with an empty array.
func (rh *redisHandler) lrange(key string, start, stop int) redisOutput {
	items := make([][]byte, 0)
	rh.keyspace.View(key, func(l *storage.Value) {
		length := l.Len()
		if start < 0 {
			start = max(start+length, 0)
		}
		if stop < 0 {
			stop += length
		}
		stop = min(stop, length-1)
		if start > stop {
			return
		}
		idx := 0
		for item := range l.All() {
			if idx > stop {
				break
			}
			if idx >= start {
				items = append(items, item)
			}
			idx++
		}
	})
	return writeRedisArray(items)
}

// stringArgs converts the arguments to strings, e.g. to use them as keys.
func stringArgs(args [][]byte) []string {
	keys := make([]string, len(args))
	for i, arg := range args {
		keys[i] = string(arg)
	}
	return keys
}
