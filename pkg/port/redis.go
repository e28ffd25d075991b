package port

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/nobletooth/circle/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tidwall/redcon"
)

const RedisOk = "OK"

var (
	address = flag.String("address", ":6380", "The ip:port to listen on for Redis protocol.")

	commandsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commands_total",
		Help: "The total number of Redis commands handled.",
	}, []string{
		"command", // Upper-cased command name, or "unknown".
		"status",  // ok | error
	})
)

// redisCommand represents a Redis command with its arguments.
type redisCommand struct {
	command string   // Upper-cased command name.
	args    [][]byte // Owned copies; safe to keep after the connection buffer is reused.
}

// newRedisCommand copies the given redcon arguments into a redisCommand.
func newRedisCommand(args [][]byte) redisCommand {
	cmd := redisCommand{command: strings.ToUpper(string(args[0])), args: make([][]byte, len(args)-1)}
	for i := 1; i < len(args); i++ {
		cmd.args[i-1] = bytes.Clone(args[i])
	}
	return cmd
}

// redisOutput conforms to a real Redis server output on non pub / sub commands.
type redisOutput struct {
	closeConnection bool      // Closes the connection if true.
	writeNil        bool      // Writes a nil value if true.
	err             *string   // Error to return if set.
	writeInt        *int      // Writes an integer value if set.
	writeBulk       *[]byte   // Writes a bulk string if set.
	writeArray      *[][]byte // Writes an array of bulk strings if set.
	writeString     string    // Writes a simple string otherwise.
}

func closeRedisConnection(msg string) redisOutput {
	return redisOutput{writeString: msg, closeConnection: true}
}

func writeRedisNil() redisOutput {
	return redisOutput{writeNil: true}
}

func writeRedisInt(i int) redisOutput {
	return redisOutput{writeInt: &i}
}

func writeRedisString(s string) redisOutput {
	return redisOutput{writeString: s}
}

func writeRedisBulk(b []byte) redisOutput {
	return redisOutput{writeBulk: &b}
}

func writeRedisArray(items [][]byte) redisOutput {
	return redisOutput{writeArray: &items}
}

func writeRedisError(err error) redisOutput {
	msg := "ERR " + err.Error()
	return redisOutput{err: &msg}
}

// writeTo serializes the output onto the given connection.
func (o redisOutput) writeTo(conn redcon.Conn) {
	switch {
	case o.err != nil:
		conn.WriteError(*o.err)
	case o.writeNil:
		conn.WriteNull()
	case o.writeInt != nil:
		conn.WriteInt(*o.writeInt)
	case o.writeBulk != nil:
		conn.WriteBulk(*o.writeBulk)
	case o.writeArray != nil:
		conn.WriteArray(len(*o.writeArray))
		for _, item := range *o.writeArray {
			conn.WriteBulk(item)
		}
	default:
		conn.WriteString(o.writeString)
	}
}

// RunRedisServer serves the given keyspace over the Redis protocol until `ctx` is cancelled.
func RunRedisServer(ctx context.Context, keyspace *storage.Keyspace) error {
	if *address == "" {
		return errors.New("expected a non-empty --address flag")
	}

	listener, err := net.Listen("tcp", *address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", *address, err)
	}
	return serveRedis(ctx, listener, keyspace)
}

// serveRedis serves `keyspace` on `listener` until `ctx` is cancelled. The listener is closed on return, and so are
// the connections accepted from it.
func serveRedis(ctx context.Context, listener net.Listener, keyspace *storage.Keyspace) error {
	redisHandler, err := newRedisHandler(keyspace)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to create a new redis handler: %w", err)
	}

	redisServer := redcon.NewServerNetwork(listener.Addr().Network(), listener.Addr().String(),
		/*handler*/ func(conn redcon.Conn, cmd redcon.Command) {
			if len(cmd.Args) == 0 {
				return
			}
			command := newRedisCommand(cmd.Args)
			output := redisHandler.handle(command)
			status := "ok"
			if output.err != nil {
				status = "error"
			}
			commandsMetric.WithLabelValues(metricCommandLabel(command.command), status).Inc()
			output.writeTo(conn)
			if output.closeConnection {
				if err := conn.Close(); err != nil {
					slog.Error("Failed to close connection.", "error", err)
				}
			}
		},
		/*accept*/ func(conn redcon.Conn) bool {
			slog.Debug("Accepted connection.", "remote", conn.RemoteAddr())
			return true // Accept all connections.
		},
		/*close*/ func(conn redcon.Conn, err error) {
			if err != nil {
				slog.Debug("Connection closed with error.", "remote", conn.RemoteAddr(), "error", err)
			}
		})

	serverErrSignal := make(chan error, 1)
	go func() {
		serverErrSignal <- redisServer.Serve(listener)
		close(serverErrSignal)
	}()
	slog.Info("Redis server is listening.", "address", listener.Addr().String())

	select {
	case <-ctx.Done():
		// Serve treats a closed listener as a clean shutdown, whether or not it has started accepting yet.
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("failed to close redis listener: %w", err)
		}
		if err := <-serverErrSignal; err != nil {
			return fmt.Errorf("redis server failed while stopping: %w", err)
		}
	case err := <-serverErrSignal:
		if err == nil {
			return errors.New("redis server stopped unexpectedly")
		}
		return fmt.Errorf("redis server stopped unexpectedly: %w", err)
	}

	return nil // Exited with no errors.
}
