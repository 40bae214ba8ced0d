// Command dietbot runs the diet-coaching webhook server and its batch jobs.
//
//	@title			dietbot API
//	@version		1.0
//	@description	Diet-coaching bot: messaging webhook, operator console and batch jobs.
//	@BasePath		/
package main

func main() {
	Execute()
}
