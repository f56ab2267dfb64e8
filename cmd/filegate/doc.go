// Command filegate runs a Telegram bot that hands out files stored in a
// private channel through deep links.
//
// Usage:
//
//	filegate --config /etc/filegate/filegate.yaml run
//	filegate --config /etc/filegate/filegate.yaml link --first 120 --last 140 --bot MyFilesBot
//	filegate --config /etc/filegate/filegate.yaml tokens mint --count 10 -o json
//	filegate --config /etc/filegate/filegate.yaml users count
//	filegate version
//
// Every setting can also be given as FILEGATE_<SECTION>__<KEY>, for example
// FILEGATE_TELEGRAM__TOKEN.
package main
