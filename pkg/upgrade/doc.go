/*
Package upgrade is the Upgrade Runner: on open it reads the stored
database version, runs any registered migrations needed to bring it up
to the build's version, and refuses to open a database newer than the
build unless the operator has opted into a dumpless upgrade and the
build declares that specific version jump compatible.

Migrations run one at a time with a log line per step rather than in
one big transaction, so a failure partway through still leaves the
already-applied steps committed and visible in readVersion.
*/
package upgrade
