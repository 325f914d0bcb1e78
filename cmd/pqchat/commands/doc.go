// Package commands defines the pqchat CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create the local identity
//   - fingerprint    Print the identity fingerprint
//   - publish        Upload your public keys to the relay directory
//   - chat           Open a session with a peer and chat interactively
//   - listen         Stay online, accept sessions and print messages
//   - history        Decrypt and print stored conversations
//   - status         Ask the relay whether a peer is online
//   - wipe           Delete the local identity, sessions and history
//
// # Configuration
//
// Flags override PQCHAT_HOME, PQCHAT_RELAY_URL, PQCHAT_STORE and
// PQCHAT_LOG_LEVEL, which may also come from a .env file in the working
// directory. The root command builds the store, directory client and
// identity service once, before any subcommand runs.
package commands
