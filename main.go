package main

import (
	"fmt"
)

func main() {
	printWelcome()
	Execute()
}

func printWelcome() {
	fmt.Println("\033[33m")
	fmt.Println("   _____  ____  _      ______ ______  _    _         _____ _   _ ")
	fmt.Println("  / ____|/ __ \\| |    |  ____|  ____|| |  | |  /\\   |_   _| \\ | |")
	fmt.Println(" | (___ | |  | | |    | |__  | |     | |__| | /  \\    | | |  \\| |")
	fmt.Println("  \\___ \\| |  | | |    |  __| | |     |  __  |/ /\\ \\   | | | . ` |")
	fmt.Println("  ____) | |__| | |____| |____| |____ | |  | / ____ \\ _| |_| |\\  |")
	fmt.Println(" |_____/ \\____/|______|______|______||_|  |_/_/    \\_\\_____|_| \\_|")
	fmt.Println("\033[0m")
	fmt.Println("\033[36m   SOLE Chain — proof-of-work node\033[0m")
	fmt.Println("\033[90m   (c) 2026 Università del Salento\033[0m")
}
