package main

import "catalogtool/internal/app"

func main() {
	app.Main()
}
