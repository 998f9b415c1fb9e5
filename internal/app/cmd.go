package app

import (
	"fmt"
	"io"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーとして起動する（デフォルト）。
	CommandServe Command = "serve"
	// CommandMigrate はスキーマ作成だけを実行して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中サーバーの /health を叩く。distrolessイメージのHEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp は使い方を表示して終了する。
	CommandHelp Command = "help"
)

var commandUsages = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "start the HTTP API (default)"},
	{CommandMigrate, "create the users and tasks tables, then exit"},
	{CommandHealthcheck, "GET /health on localhost:$SERVER_PORT"},
	{CommandHelp, "show this message"},
}

// ParseCommand は最初の引数からサブコマンドを決める。
// 引数なしや未知の値はCommandServeとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	switch args[0] {
	case "-h", "--help":
		return CommandHelp
	}
	for _, u := range commandUsages {
		if string(u.cmd) == args[0] {
			return u.cmd
		}
	}
	return CommandServe
}

// printUsage はサブコマンドの一覧をwに書き出す。
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: taskapi [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, u := range commandUsages {
		fmt.Fprintf(w, "  %-12s %s\n", u.cmd, u.desc)
	}
}
