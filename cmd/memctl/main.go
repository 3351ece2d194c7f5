// memctl boots a simulated machine and exercises its memory subsystem.
package main

func main() {
	execute()
}
