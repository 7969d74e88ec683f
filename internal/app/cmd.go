package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は退避ワーカーモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// validCommands はサポートされるサブコマンドの集合。
var validCommands = map[Command]bool{
	CommandServe:       true,
	CommandWorker:      true,
	CommandMigrate:     true,
	CommandHealthcheck: true,
}

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	cmd := Command(args[0])
	if !validCommands[cmd] {
		return CommandServe
	}

	return cmd
}
